package repository

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aliskhannn/certprep/internal/domain/entities"
)

var (
	ErrCertificationNotFound = errors.New("certification not found")
	ErrInvalidCertification  = errors.New("invalid certification metadata")
)

// CertificationRepository serves the static certification metadata loaded
// from a YAML file at startup.
type CertificationRepository struct {
	certs  []*entities.Certification
	byCode map[string]*entities.Certification
}

// NewCertificationRepository loads and validates the metadata file at path.
func NewCertificationRepository(path string) (*CertificationRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read certifications: %w", err)
	}
	return ParseCertifications(data)
}

// ParseCertifications builds a repository from YAML of the form
//
//	certifications:
//	  - code: AZ-900
//	    name: Azure Fundamentals
//	    final_exam_minutes: 90
func ParseCertifications(data []byte) (*CertificationRepository, error) {
	var wrapper struct {
		Certifications []*entities.Certification `yaml:"certifications"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal certifications YAML: %w", err)
	}

	r := &CertificationRepository{
		byCode: make(map[string]*entities.Certification, len(wrapper.Certifications)),
	}
	for _, c := range wrapper.Certifications {
		applyDefaults(c)
		if err := validate(c); err != nil {
			return nil, err
		}
		key := strings.ToUpper(c.Code)
		if _, dup := r.byCode[key]; dup {
			return nil, fmt.Errorf("%w: duplicate code %q", ErrInvalidCertification, c.Code)
		}
		r.byCode[key] = c
		r.certs = append(r.certs, c)
	}

	sort.Slice(r.certs, func(i, j int) bool { return r.certs[i].Code < r.certs[j].Code })
	return r, nil
}

func applyDefaults(c *entities.Certification) {
	if c.PracticeQuizzes == 0 {
		c.PracticeQuizzes = entities.PracticeQuizCount
	}
	if c.FinalExams == 0 {
		c.FinalExams = entities.FinalExamCount
	}
}

func validate(c *entities.Certification) error {
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("%w: empty code", ErrInvalidCertification)
	}
	if c.PracticeQuizzes < 0 || c.FinalExams < 0 {
		return fmt.Errorf("%w: %s has a negative quiz count", ErrInvalidCertification, c.Code)
	}
	if c.FinalExams > 0 && (c.FinalExamMinutes < entities.MinFinalExamMinutes || c.FinalExamMinutes > entities.MaxFinalExamMinutes) {
		return fmt.Errorf("%w: %s final exam must last %d-%d minutes, got %d",
			ErrInvalidCertification, c.Code,
			entities.MinFinalExamMinutes, entities.MaxFinalExamMinutes, c.FinalExamMinutes)
	}
	return nil
}

// GetByCode returns the certification with the given code, ignoring case.
func (r *CertificationRepository) GetByCode(code string) (*entities.Certification, error) {
	c, ok := r.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, ErrCertificationNotFound
	}
	return c, nil
}

// GetAll returns every certification sorted by code.
func (r *CertificationRepository) GetAll() []*entities.Certification {
	return r.certs
}

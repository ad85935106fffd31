package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aliskhannn/certprep/internal/domain/entities"
)

func TestValidateBank(t *testing.T) {
	q := func(id string) entities.Question {
		return entities.Question{ID: id, Prompt: "?", Options: []string{"a", "b"}, CorrectIndex: 1}
	}

	tests := []struct {
		name    string
		bank    questionBank
		wantErr bool
	}{
		{"ok", questionBank{"1": {q("a"), q("b")}, "32": {q("c")}}, false},
		{"quiz zero", questionBank{"0": {q("a")}}, true},
		{"past catalog", questionBank{"33": {q("a")}}, true},
		{"not a number", questionBank{"final": {q("a")}}, true},
		{"malformed question", questionBank{"1": {{ID: "x", Options: []string{"a"}}}}, true},
		{"duplicate id", questionBank{"1": {q("a")}, "2": {q("a")}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBank(tt.bank, 32)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

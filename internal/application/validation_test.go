package application

import (
	"errors"
	"strings"
	"testing"

	"graphdeck/internal/domain"
)

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		value     string
		wantErr   bool
		errMsg    string
	}{
		{
			name:      "valid value",
			fieldName: "title",
			value:     "Plan",
			wantErr:   false,
		},
		{
			name:      "empty value",
			fieldName: "title",
			value:     "",
			wantErr:   true,
			errMsg:    "title is required",
		},
		{
			name:      "whitespace only",
			fieldName: "name",
			value:     "   ",
			wantErr:   true,
			errMsg:    "name is required",
		},
		{
			name:      "unknown field name passes through",
			fieldName: "colour",
			value:     "",
			wantErr:   true,
			errMsg:    "colour is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(tt.fieldName, tt.value)

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.errMsg)
					return
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
				var valErr *ValidationError
				if !errors.As(err, &valErr) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      int64
		wantErr bool
	}{
		{name: "positive", id: 7, wantErr: false},
		{name: "zero", id: 0, wantErr: true},
		{name: "negative", id: -3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID("cardID", tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%d) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "card ID must be positive") {
				t.Errorf("unexpected message: %v", err)
			}
		})
	}
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	if !errors.Is(&NotFoundError{Kind: domain.KindCard, ID: 1}, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}
	if !errors.Is(&DuplicateIDError{Kind: domain.KindBoard, ID: 2}, ErrDuplicateID) {
		t.Error("DuplicateIDError should match ErrDuplicateID")
	}
	if got := (&DuplicateIDError{Kind: domain.KindBoard, ID: 2}).Error(); got != "board 2 already exists" {
		t.Errorf("unexpected message %q", got)
	}
}

package course_test

import (
	"testing"

	"github.com/p-n-ai/pai-course/internal/course"
)

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "valid",
			doc:  `{"id":"c1","chapters":[{"id":"ch1","lectures":[{"id":"a","requires_quiz":true,"quizzes":["q1"]}]}]}`,
		},
		{
			name: "empty chapters",
			doc:  `{"id":"c1","chapters":[]}`,
		},
		{
			name:    "missing id",
			doc:     `{"chapters":[]}`,
			wantErr: true,
		},
		{
			name:    "lecture without id",
			doc:     `{"id":"c1","chapters":[{"id":"ch1","lectures":[{"title":"x"}]}]}`,
			wantErr: true,
		},
		{
			name:    "order index not integer",
			doc:     `{"id":"c1","chapters":[{"id":"ch1","lectures":[{"id":"a","order_index":"first"}]}]}`,
			wantErr: true,
		},
		{
			name:    "negative duration",
			doc:     `{"id":"c1","chapters":[{"id":"ch1","lectures":[{"id":"a","duration_seconds":-5}]}]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			doc:     `{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := course.ValidateJSON([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_GoValue(t *testing.T) {
	doc := map[string]any{
		"id": "c1",
		"chapters": []any{
			map[string]any{"id": "ch1", "lectures": []any{map[string]any{"id": "a", "order_index": 2}}},
		},
	}
	if err := course.Validate(doc); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

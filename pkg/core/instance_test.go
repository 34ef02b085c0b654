package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toyInstanceJSON = `{
  "horizon": 5,
  "qualifications": ["A", "B", "C"],
  "staff": [
    {"name": "Olivia", "qualifications": ["A", "B", "C"], "vacations": []},
    {"name": "Liam", "qualifications": ["A", "B"], "vacations": [1]},
    {"name": "Emma", "qualifications": ["C"], "vacations": [2]}
  ],
  "jobs": [
    {"name": "Job1", "gain": 20, "due_date": 3, "daily_penalty": 3,
     "working_days_per_qualification": {"A": 1, "B": 1, "C": 1}},
    {"name": "Job2", "gain": 15, "due_date": 3, "daily_penalty": 3,
     "working_days_per_qualification": {"A": 1, "B": 2}}
  ]
}`

func TestLoadInstance(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toy_instance.json")
	require.NoError(t, os.WriteFile(path, []byte(toyInstanceJSON), 0o644))

	inst, err := LoadInstance(path)
	require.NoError(t, err)

	assert.Equal(t, "toy_instance", inst.Name)
	assert.Equal(t, 5, inst.Horizon)
	assert.Len(t, inst.Staff, 3)
	assert.Len(t, inst.Jobs, 2)
	assert.Equal(t, 2, inst.QualificationIndex("B"))
	assert.Equal(t, 0, inst.QualificationIndex("Z"))
	assert.True(t, inst.Qualified(1, 3))
	assert.False(t, inst.Qualified(2, 3))
	assert.True(t, inst.OnVacation(2, 1))
	assert.False(t, inst.OnVacation(1, 1))
	assert.Equal(t, 2, inst.Requirement(2, 2))
	assert.Equal(t, 0, inst.Requirement(2, 3))
}

func TestLoadInstanceMissingFile(t *testing.T) {
	_, err := LoadInstance(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantErrs []string
	}{
		{
			name: "Test case 1: YAML instance",
			data: `
horizon: 2
qualifications: [A]
staff:
  - name: Ann
    qualifications: [A]
jobs:
  - name: J
    gain: 3
    due_date: 2
    daily_penalty: 1
    working_days_per_qualification: {A: 1}
`,
		},
		{
			name: "Test case 2: every problem is reported",
			data: `
horizon: 0
qualifications: [A, A]
staff:
  - name: Ann
    qualifications: [Z]
    vacations: [0]
  - name: Ann
jobs:
  - name: J
    daily_penalty: -1
    working_days_per_qualification: {Y: 1}
`,
			wantErrs: []string{
				"horizon must be > 0",
				`duplicate qualification "A"`,
				`staff "Ann" has unknown qualification "Z"`,
				"vacation day 0 outside horizon",
				`duplicate staff name "Ann"`,
				"daily_penalty must be >= 0",
				`requires unknown qualification "Y"`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInstance([]byte(tt.data))
			if len(tt.wantErrs) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErrs {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestScheduleByDay(t *testing.T) {
	s := Schedule{Assignments: []Assignment{
		{Day: 1, Staff: "a", Job: "x"},
		{Day: 2, Staff: "b", Job: "x"},
		{Day: 1, Staff: "c", Job: "y"},
	}}
	byDay := s.ByDay()
	assert.Len(t, byDay[1], 2)
	assert.Equal(t, "c", byDay[1][1].Staff)
	assert.Len(t, byDay[2], 1)
}

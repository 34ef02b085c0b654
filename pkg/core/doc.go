// Package core provides the domain data structures of the staffing problem.
//
// This package contains the entities an instance file describes:
//
//   - Instance: horizon length, qualification catalogue, staff and jobs
//   - Staff: a person with qualifications and vacation days
//   - Job: a project with per-qualification workload, gain, due date and daily penalty
//   - Schedule: the day-by-day assignment extracted from a solved model
//
// Instances are loaded once and consumed read-only by the model builders; no
// optimization code mutates them.
//
// Example usage:
//
//	inst, err := core.LoadInstance("instances/toy_instance.json")
//	if err != nil {
//	    return err
//	}
//	log.Info("instance loaded",
//	    "horizon", inst.Horizon,
//	    "staff", len(inst.Staff),
//	    "jobs", len(inst.Jobs))
//
// Days are 1-based (1..Horizon) and so are the staff, job and qualification
// indices used when building models.
package core

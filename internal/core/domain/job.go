package domain

// JobStatus is the lifecycle state of a job as reported by the marketplace backend.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobAssigned   JobStatus = "assigned"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobCancelled  JobStatus = "cancelled"
)

// Job is the subset of the backend job record the tracker relies on.
type Job struct {
	ID         string
	CustomerID string
	MechanicID string
	Status     JobStatus
}

// Trackable reports whether locations may still be tracked for the job.
func (j Job) Trackable() bool {
	return j.Status != JobCompleted && j.Status != JobCancelled
}

// HasParticipant reports whether userID is the job's participant for role.
// An empty userID never matches.
func (j Job) HasParticipant(role Role, userID string) bool {
	if userID == "" {
		return false
	}
	switch role {
	case RoleCustomer:
		return j.CustomerID == userID
	case RoleMechanic:
		return j.MechanicID == userID
	}
	return false
}

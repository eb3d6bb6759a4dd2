package model

// Assign returns t assigned to workerID and moved to InProgress.
// Both fields change together or not at all.
func Assign(t Task, workerID string) (Task, error) {
	if workerID == "" {
		return t, NewFieldError("worker_id", "is required")
	}
	if !CanTransition(t.Status, StatusInProgress) {
		return t, &TransitionError{TaskID: t.ID, From: t.Status, To: StatusInProgress}
	}
	t.AssignedTo = workerID
	t.Status = StatusInProgress
	return t, nil
}

// Transition moves t to status to. Use Assign for entering InProgress.
func Transition(t Task, to Status) (Task, error) {
	if to == StatusInProgress {
		if t.Status == StatusInProgress {
			return t, nil
		}
		if !t.Assigned() {
			return t, NewFieldError("worker_id", "is required to start a task")
		}
	}
	if !CanTransition(t.Status, to) {
		return t, &TransitionError{TaskID: t.ID, From: t.Status, To: to}
	}
	t.Status = to
	return t, nil
}

package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskBookletTrackingSync = "tracking.sync_booklet"

const TaskInstallationEmail = "installation.email"

const TaskFollowupDigest = "followups.digest"

type BookletTrackingSyncPayload struct {
	BookletID string `json:"bookletId"`
}

type InstallationEmailPayload struct {
	LeadID        string `json:"leadId"`
	Type          string `json:"type"`
	CustomMessage string `json:"customMessage,omitempty"`
	ActorID       string `json:"actorId,omitempty"`
}

// FollowupDigestPayload names the business-local day the digest covers.
type FollowupDigestPayload struct {
	Day string `json:"day"`
}

func NewBookletTrackingSyncTask(payload BookletTrackingSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBookletTrackingSync, data), nil
}

func ParseBookletTrackingSyncPayload(task *asynq.Task) (BookletTrackingSyncPayload, error) {
	var payload BookletTrackingSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BookletTrackingSyncPayload{}, err
	}
	return payload, nil
}

func NewInstallationEmailTask(payload InstallationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInstallationEmail, data), nil
}

func ParseInstallationEmailPayload(task *asynq.Task) (InstallationEmailPayload, error) {
	var payload InstallationEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return InstallationEmailPayload{}, err
	}
	return payload, nil
}

func NewFollowupDigestTask(payload FollowupDigestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowupDigest, data), nil
}

func ParseFollowupDigestPayload(task *asynq.Task) (FollowupDigestPayload, error) {
	var payload FollowupDigestPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowupDigestPayload{}, err
	}
	return payload, nil
}

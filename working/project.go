package working

import (
	"context"
	"fmt"

	"github.com/rohith4444/VITA-sub003/memory"
)

// storeProject overwrites the authoritative project document. There is no
// merge on store; the new entry fully replaces the old document.
func (s *Store) storeProject(ctx context.Context, entry *memory.Entry) error {
	if entry.ProjectID == "" {
		return memory.ErrMissingProjectID
	}

	lock := s.projectLocks.get(entry.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	clone := entry.Clone()
	s.stateMu.Lock()
	s.projects[entry.ProjectID] = clone
	s.stateMu.Unlock()

	s.logger.Debug("stored project state",
		"project_id", entry.ProjectID,
		"agent_id", entry.OwnerID,
	)
	return nil
}

// retrieveProject returns the project document if the agent may access it.
// A missing project or denied access yields an empty result, not an error.
func (s *Store) retrieveProject(agentID string, q *memory.Query) ([]*memory.Entry, error) {
	if q.ProjectID == "" {
		return nil, memory.ErrMissingProjectID
	}

	lock := s.projectLocks.get(q.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	s.stateMu.Lock()
	doc := s.projects[q.ProjectID]
	s.stateMu.Unlock()

	if doc == nil || !memory.CanAccess(doc, agentID) {
		return []*memory.Entry{}, nil
	}
	if !q.Matches(doc) {
		return []*memory.Entry{}, nil
	}
	return []*memory.Entry{doc.Clone()}, nil
}

// updateProject patches the project document under the ownership rule: the
// team lead may patch arbitrary fields, any other agent may only patch a task
// it owns, addressed by the query's task id.
func (s *Store) updateProject(agentID string, q *memory.Query, patch map[string]any) error {
	if q.ProjectID == "" {
		return memory.ErrMissingProjectID
	}

	lock := s.projectLocks.get(q.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	s.stateMu.Lock()
	doc := s.projects[q.ProjectID]
	s.stateMu.Unlock()

	if doc == nil {
		return memory.ErrNotFound
	}

	if agentID == TeamLeadAgent {
		for k, v := range patch {
			doc.Content[k] = memory.CloneValue(v)
		}
		doc.Touch()
		s.logger.Debug("project state updated", "project_id", q.ProjectID, "agent_id", agentID)
		return nil
	}

	task, err := ownedTask(doc, q.TaskID, agentID)
	if err != nil {
		return err
	}
	for k, v := range patch {
		task[k] = memory.CloneValue(v)
	}
	doc.Touch()

	s.logger.Debug("project task updated",
		"project_id", q.ProjectID,
		"task_id", q.TaskID,
		"agent_id", agentID,
	)
	return nil
}

// ownedTask resolves the task map the agent is allowed to patch. The task
// must exist under the document's "tasks" map and carry the agent as its
// "updated_by" owner.
func ownedTask(doc *memory.Entry, taskID, agentID string) (map[string]any, error) {
	if taskID == "" {
		return nil, fmt.Errorf("%w: task id required for non-lead updates", memory.ErrUpdateDenied)
	}
	tasks, ok := doc.Content["tasks"].(map[string]any)
	if !ok {
		return nil, memory.ErrNotFound
	}
	task, ok := tasks[taskID].(map[string]any)
	if !ok {
		return nil, memory.ErrNotFound
	}
	owner, _ := task["updated_by"].(string)
	if owner != agentID {
		return nil, fmt.Errorf("%w: task %q is owned by %q", memory.ErrUpdateDenied, taskID, owner)
	}
	return task, nil
}

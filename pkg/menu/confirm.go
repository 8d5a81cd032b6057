package menu

import (
	"sync"

	"workspace-cluster-manager/pkg/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNoPendingConfirmation = errors.New("no such pending confirmation")

// ConfirmRequest asks the user to confirm a destructive action
type ConfirmRequest struct {
	Message   string
	Subject   string
	Detail    string
	OkLabel   string
	OnConfirm func()
}

// Confirmer prompts the user. OnConfirm runs only if the user accepts.
type Confirmer interface {
	Confirm(req ConfirmRequest)
}

// Prompts holds the pending confirmation prompt. Like a modal dialog there is
// at most one; a new prompt replaces the previous one.
type Prompts struct {
	mu      sync.Mutex
	id      string
	pending *ConfirmRequest
}

func NewPrompts() *Prompts {
	return &Prompts{}
}

func (p *Prompts) Confirm(req ConfirmRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.id = uuid.New().String()
	p.pending = &req
}

// Pending returns the open prompt, if any
func (p *Prompts) Pending() (models.Confirmation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == nil {
		return models.Confirmation{}, false
	}
	return models.Confirmation{
		ID:      p.id,
		Message: p.pending.Message,
		Subject: p.pending.Subject,
		Detail:  p.pending.Detail,
		OkLabel: p.pending.OkLabel,
	}, true
}

// Resolve closes the prompt with the given id, running its action when
// confirmed is true.
func (p *Prompts) Resolve(id string, confirmed bool) error {
	p.mu.Lock()
	if p.pending == nil || p.id != id {
		p.mu.Unlock()
		return errors.Wrapf(ErrNoPendingConfirmation, "id %q", id)
	}
	req := p.pending
	p.pending = nil
	p.id = ""
	p.mu.Unlock()

	if confirmed {
		req.OnConfirm()
	}
	return nil
}

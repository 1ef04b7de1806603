package client

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"taskboard/internal/domain"
)

var (
	ErrSubmitInProgress = errors.New("invitation already being submitted")

	validate = validator.New()
)

// FieldErrors son los mensajes por campo que el formulario muestra en línea.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "invalid form: " + strings.Join(parts, ", ")
}

type WorkspaceLister interface {
	ListWorkspaces(ctx context.Context) ([]domain.Workspace, error)
}

type WorkspaceInviter interface {
	InviteWorkspaceUser(ctx context.Context, workspaceID, userEmail string) (domain.WorkspaceUser, error)
}

// InviteForm invita un email a uno de los workspaces del usuario actual.
type InviteForm struct {
	lister  WorkspaceLister
	inviter WorkspaceInviter
	onClose func()

	mu          sync.Mutex
	userEmail   string
	workspaceID string
	workspaces  []domain.Workspace
	fieldErrs   FieldErrors
	submitting  bool
}

func NewInviteForm(lister WorkspaceLister, inviter WorkspaceInviter, onClose func()) *InviteForm {
	return &InviteForm{lister: lister, inviter: inviter, onClose: onClose}
}

// LoadWorkspaces carga las opciones del selector de workspace.
func (f *InviteForm) LoadWorkspaces(ctx context.Context) ([]domain.Workspace, error) {
	list, err := f.lister.ListWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.workspaces = list
	f.mu.Unlock()
	return list, nil
}

func (f *InviteForm) SetUserEmail(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userEmail = email
}

func (f *InviteForm) SetWorkspaceID(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workspaceID = id
}

// Values devuelve los campos actuales del formulario.
func (f *InviteForm) Values() (userEmail, workspaceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userEmail, f.workspaceID
}

// Errors devuelve los errores mostrados tras el último Submit.
func (f *InviteForm) Errors() FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fieldErrs
}

// Validate devuelve nil si el formulario se puede enviar.
func (f *InviteForm) Validate() FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

// CanSubmit indica si el botón de envío debe estar habilitado.
func (f *InviteForm) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.submitting && f.validateLocked() == nil
}

func (f *InviteForm) validateLocked() FieldErrors {
	errs := FieldErrors{}
	if validate.Var(strings.TrimSpace(f.userEmail), "required,email") != nil {
		errs["userEmail"] = "must be a valid email"
	}
	switch {
	case strings.TrimSpace(f.workspaceID) == "":
		errs["workspaceId"] = "select a workspace"
	case !f.hasWorkspaceLocked(f.workspaceID):
		errs["workspaceId"] = "unknown workspace"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (f *InviteForm) hasWorkspaceLocked(id string) bool {
	for _, ws := range f.workspaces {
		if ws.ID == id {
			return true
		}
	}
	return false
}

// Submit hace exactamente una llamada de invitación si el formulario es
// válido. Con éxito limpia los campos y cierra; con error conserva los campos.
func (f *InviteForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitInProgress
	}
	if errs := f.validateLocked(); errs != nil {
		f.fieldErrs = errs
		f.mu.Unlock()
		return errs
	}
	f.submitting = true
	userEmail := strings.TrimSpace(f.userEmail)
	workspaceID := f.workspaceID
	f.mu.Unlock()

	_, err := f.inviter.InviteWorkspaceUser(ctx, workspaceID, userEmail)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
			f.fieldErrs = FieldErrors(apiErr.Fields)
		} else {
			f.fieldErrs = FieldErrors{"form": err.Error()}
		}
		f.mu.Unlock()
		return err
	}
	f.userEmail = ""
	f.workspaceID = ""
	f.fieldErrs = nil
	f.mu.Unlock()

	if f.onClose != nil {
		f.onClose()
	}
	return nil
}

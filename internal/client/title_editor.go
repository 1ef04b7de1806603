package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskboard/internal/debounce"
	"taskboard/internal/domain"
)

// DefaultTitleDebounce es la ventana de inactividad antes de guardar un título.
const DefaultTitleDebounce = 1000 * time.Millisecond

// TaskUpdater es el subconjunto del cliente que usa el editor.
type TaskUpdater interface {
	UpdateTask(ctx context.Context, id string, snap TaskSnapshot) (domain.Task, error)
}

type TitleEditorOptions struct {
	Wait        time.Duration
	SaveTimeout time.Duration
	// OnSaving recibe true antes de cada guardado y false al terminar, aun si falla.
	OnSaving func(saving bool)
	OnError  func(err error)
}

// TaskTitleEditor mantiene el título editable de una tarea y lo persiste
// con debounce enviando el registro completo.
type TaskTitleEditor struct {
	logger    *zap.Logger
	updater   TaskUpdater
	opts      TitleEditorOptions
	debouncer *debounce.Debouncer[string]
	now       func() time.Time

	mu     sync.Mutex
	task   *domain.Task
	title  string
	saving bool
}

func NewTaskTitleEditor(logger *zap.Logger, updater TaskUpdater, task *domain.Task, opts TitleEditorOptions) *TaskTitleEditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Wait <= 0 {
		opts.Wait = DefaultTitleDebounce
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 10 * time.Second
	}
	e := &TaskTitleEditor{
		logger:  logger,
		updater: updater,
		opts:    opts,
		now:     time.Now,
	}
	if task != nil {
		t := *task
		e.task = &t
		e.title = t.Title
	}
	e.debouncer = debounce.New(opts.Wait, e.save)
	return e
}

// SetTitle actualiza el estado local al instante y agenda el guardado.
func (e *TaskTitleEditor) SetTitle(title string) {
	e.mu.Lock()
	e.title = title
	e.mu.Unlock()
	e.debouncer.Trigger(title)
}

func (e *TaskTitleEditor) Title() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.title
}

func (e *TaskTitleEditor) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

// Task devuelve el último registro conocido, o false si no hay tarea cargada.
func (e *TaskTitleEditor) Task() (domain.Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.task == nil {
		return domain.Task{}, false
	}
	return *e.task, true
}

// SetTask reemplaza el registro conocido. Si no hay edición pendiente el
// título local se alinea con el del servidor.
func (e *TaskTitleEditor) SetTask(task domain.Task) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.task = &task
	if !e.debouncer.Pending() {
		e.title = task.Title
	}
}

// Close guarda de inmediato cualquier edición pendiente.
func (e *TaskTitleEditor) Close() {
	e.debouncer.Flush()
}

func (e *TaskTitleEditor) save(title string) {
	e.mu.Lock()
	if e.task == nil {
		e.mu.Unlock()
		return
	}
	snap := FullTaskSnapshot(*e.task, e.now())
	taskID := e.task.ID
	e.mu.Unlock()
	snap.Title = title

	e.setSaving(true)
	defer e.setSaving(false)

	ctx, cancel := context.WithTimeout(context.Background(), e.opts.SaveTimeout)
	defer cancel()

	updated, err := e.updater.UpdateTask(ctx, taskID, snap)
	if err != nil {
		e.logger.Warn("save task title failed", zap.String("task_id", taskID), zap.Error(err))
		if e.opts.OnError != nil {
			e.opts.OnError(err)
		}
		return
	}

	e.mu.Lock()
	e.task = &updated
	e.mu.Unlock()
}

func (e *TaskTitleEditor) setSaving(saving bool) {
	e.mu.Lock()
	e.saving = saving
	e.mu.Unlock()
	if e.opts.OnSaving != nil {
		e.opts.OnSaving(saving)
	}
}

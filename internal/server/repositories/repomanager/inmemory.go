package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/dbx"
	"github.com/taxintake/intakeengine/internal/server/models"
	"github.com/taxintake/intakeengine/internal/server/repositories/audit"
	"github.com/taxintake/intakeengine/internal/server/repositories/bankaccounts"
	"github.com/taxintake/intakeengine/internal/server/repositories/checklist"
	"github.com/taxintake/intakeengine/internal/server/repositories/childcare"
	"github.com/taxintake/intakeengine/internal/server/repositories/dependents"
	"github.com/taxintake/intakeengine/internal/server/repositories/estimatedpayments"
	"github.com/taxintake/intakeengine/internal/server/repositories/files"
	"github.com/taxintake/intakeengine/internal/server/repositories/intakes"
	"github.com/taxintake/intakeengine/internal/server/repositories/packets"
	"github.com/taxintake/intakeengine/internal/server/repositories/taxpayers"
)

// InMemoryRepositoryManager keeps every table in process memory. The DBTX
// argument of the factories is ignored, so transactions are not isolated.
// It mirrors the Postgres constraints the engine depends on: the checklist
// natural key and conditional packet transitions.
type InMemoryRepositoryManager struct {
	mu    sync.Mutex
	clock func() time.Time

	intakes    map[string]*models.Intake
	taxpayers  map[string]*models.TaxpayerInfo
	filing     map[string]*models.FilingStatus
	accounts   []*models.BankAccount
	dependents []*models.Dependent
	childcare  []*models.ChildcareProvider
	payments   []*models.EstimatedPayment
	files      []*models.File
	checklist  []*models.ChecklistItem
	packets    []*models.PacketRequest
	audit      []*models.AuditRecord

	checklistWrites int
}

var _ RepositoryManager = (*InMemoryRepositoryManager)(nil)

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		clock:     time.Now,
		intakes:   map[string]*models.Intake{},
		taxpayers: map[string]*models.TaxpayerInfo{},
		filing:    map[string]*models.FilingStatus{},
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Intakes(dbx.DBTX) intakes.Repository {
	return memIntakes{m}
}

func (m *InMemoryRepositoryManager) Taxpayers(dbx.DBTX) taxpayers.Repository {
	return memTaxpayers{m}
}

func (m *InMemoryRepositoryManager) BankAccounts(dbx.DBTX) bankaccounts.Repository {
	return memAccounts{m}
}

func (m *InMemoryRepositoryManager) Dependents(dbx.DBTX) dependents.Repository {
	return memDependents{m}
}

func (m *InMemoryRepositoryManager) Childcare(dbx.DBTX) childcare.Repository {
	return memChildcare{m}
}

func (m *InMemoryRepositoryManager) EstimatedPayments(dbx.DBTX) estimatedpayments.Repository {
	return memPayments{m}
}

func (m *InMemoryRepositoryManager) Files(dbx.DBTX) files.Repository {
	return memFiles{m}
}

func (m *InMemoryRepositoryManager) Checklist(dbx.DBTX) checklist.Repository {
	return memChecklist{m}
}

func (m *InMemoryRepositoryManager) Packets(dbx.DBTX) packets.Repository {
	return memPackets{m}
}

func (m *InMemoryRepositoryManager) Audit(dbx.DBTX) audit.Repository {
	return memAudit{m}
}

// ChecklistWrites counts checklist inserts and updates since creation.
func (m *InMemoryRepositoryManager) ChecklistWrites() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checklistWrites
}

// AuditRecords returns a copy of everything recorded so far.
func (m *InMemoryRepositoryManager) AuditRecords() []models.AuditRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AuditRecord, len(m.audit))
	for i, r := range m.audit {
		out[i] = *r
	}
	return out
}

func (m *InMemoryRepositoryManager) intakeExists(id string) error {
	if _, ok := m.intakes[id]; !ok {
		return fmt.Errorf("intake %s: %w", id, common.ErrorNotFound)
	}
	return nil
}

func clone[T any](v *T) *T {
	c := *v
	return &c
}

func listFor[T any](rows []*T, intakeID string, key func(*T) string) []*T {
	var out []*T
	for _, r := range rows {
		if key(r) == intakeID {
			out = append(out, clone(r))
		}
	}
	return out
}

type memIntakes struct{ m *InMemoryRepositoryManager }

func (r memIntakes) Create(_ context.Context, i *models.Intake) (*models.Intake, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = models.IntakeDraft
	}
	i.CreatedAt = r.m.clock()
	i.UpdatedAt = i.CreatedAt
	r.m.intakes[i.ID] = clone(i)
	return i, nil
}

func (r memIntakes) GetByID(_ context.Context, id string) (*models.Intake, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	i, ok := r.m.intakes[id]
	if !ok {
		return nil, fmt.Errorf("intake: %w", common.ErrorNotFound)
	}
	return clone(i), nil
}

func (r memIntakes) Assign(_ context.Context, id string, staffID *string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	i, ok := r.m.intakes[id]
	if !ok {
		return common.ErrorNotFound
	}
	i.AssignedTo = staffID
	return nil
}

type memTaxpayers struct{ m *InMemoryRepositoryManager }

func (r memTaxpayers) GetByIntake(_ context.Context, intakeID string) (*models.TaxpayerInfo, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.taxpayers[intakeID]
	if !ok {
		return nil, fmt.Errorf("taxpayer info: %w", common.ErrorNotFound)
	}
	return clone(t), nil
}

func (r memTaxpayers) Save(_ context.Context, t *models.TaxpayerInfo) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.intakeExists(t.IntakeID); err != nil {
		return err
	}
	r.m.taxpayers[t.IntakeID] = clone(t)
	return nil
}

func (r memTaxpayers) GetFilingStatus(_ context.Context, intakeID string) (*models.FilingStatus, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f, ok := r.m.filing[intakeID]
	if !ok {
		return nil, fmt.Errorf("filing status: %w", common.ErrorNotFound)
	}
	return clone(f), nil
}

func (r memTaxpayers) SaveFilingStatus(_ context.Context, fs *models.FilingStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.intakeExists(fs.IntakeID); err != nil {
		return err
	}
	r.m.filing[fs.IntakeID] = clone(fs)
	return nil
}

type memAccounts struct{ m *InMemoryRepositoryManager }

func (r memAccounts) Create(_ context.Context, a *models.BankAccount) (*models.BankAccount, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.intakeExists(a.IntakeID); err != nil {
		return nil, err
	}
	a.ID = uuid.NewString()
	r.m.accounts = append(r.m.accounts, clone(a))
	return a, nil
}

func (r memAccounts) ListByIntake(_ context.Context, intakeID string) ([]*models.BankAccount, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return listFor(r.m.accounts, intakeID, func(a *models.BankAccount) string { return a.IntakeID }), nil
}

type memDependents struct{ m *InMemoryRepositoryManager }

func (r memDependents) Create(_ context.Context, d *models.Dependent) (*models.Dependent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.intakeExists(d.IntakeID); err != nil {
		return nil, err
	}
	d.ID = uuid.NewString()
	r.m.dependents = append(r.m.dependents, clone(d))
	return d, nil
}

func (r memDependents) ListByIntake(_ context.Context, intakeID string) ([]*models.Dependent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return listFor(r.m.dependents, intakeID, func(d *models.Dependent) string { return d.IntakeID }), nil
}

type memChildcare struct{ m *InMemoryRepositoryManager }

func (r memChildcare) Create(_ context.Context, p *models.ChildcareProvider) (*models.ChildcareProvider, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.intakeExists(p.IntakeID); err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()
	r.m.childcare = append(r.m.childcare, clone(p))
	return p, nil
}

func (r memChildcare) ListByIntake(_ context.Context, intakeID string) ([]*models.ChildcareProvider, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return listFor(r.m.childcare, intakeID, func(p *models.ChildcareProvider) string { return p.IntakeID }), nil
}

type memPayments struct{ m *InMemoryRepositoryManager }

func (r memPayments) Create(_ context.Context, p *models.EstimatedPayment) (*models.EstimatedPayment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.intakeExists(p.IntakeID); err != nil {
		return nil, err
	}
	if p.Quarter < 1 || p.Quarter > 4 {
		return nil, fmt.Errorf("quarter %d out of range", p.Quarter)
	}
	p.ID = uuid.NewString()
	r.m.payments = append(r.m.payments, clone(p))
	return p, nil
}

func (r memPayments) ListByIntake(_ context.Context, intakeID string) ([]*models.EstimatedPayment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return listFor(r.m.payments, intakeID, func(p *models.EstimatedPayment) string { return p.IntakeID }), nil
}

type memFiles struct{ m *InMemoryRepositoryManager }

func (r memFiles) Create(_ context.Context, f *models.File) (*models.File, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if !f.Category.Valid() {
		return nil, fmt.Errorf("unknown file category %q", f.Category)
	}
	if err := r.m.intakeExists(f.IntakeID); err != nil {
		return nil, err
	}
	f.ID = uuid.NewString()
	f.CreatedAt = r.m.clock()
	r.m.files = append(r.m.files, clone(f))
	return f, nil
}

func (r memFiles) GetByID(_ context.Context, id string) (*models.File, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, f := range r.m.files {
		if f.ID == id {
			return clone(f), nil
		}
	}
	return nil, fmt.Errorf("file: %w", common.ErrorNotFound)
}

func (r memFiles) ListByIntake(_ context.Context, intakeID string) ([]*models.File, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return listFor(r.m.files, intakeID, func(f *models.File) string { return f.IntakeID }), nil
}

func (r memFiles) SetNeedsReview(_ context.Context, id string, needsReview bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, f := range r.m.files {
		if f.ID == id {
			f.NeedsReview = needsReview
			return nil
		}
	}
	return common.ErrorNotFound
}

type memChecklist struct{ m *InMemoryRepositoryManager }

func (r memChecklist) ListByIntake(_ context.Context, intakeID string, includeResolved bool, types ...models.ChecklistItemType) ([]*models.ChecklistItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []*models.ChecklistItem
	for _, it := range r.m.checklist {
		if it.IntakeID != intakeID || (!includeResolved && it.IsResolved) {
			continue
		}
		if len(types) > 0 && !containsType(types, it.ItemType) {
			continue
		}
		out = append(out, clone(it))
	}
	return out, nil
}

func containsType(types []models.ChecklistItemType, t models.ChecklistItemType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

func (r memChecklist) GetByID(_ context.Context, id string) (*models.ChecklistItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, it := range r.m.checklist {
		if it.ID == id {
			return clone(it), nil
		}
	}
	return nil, fmt.Errorf("checklist item: %w", common.ErrorNotFound)
}

func (r memChecklist) Upsert(_ context.Context, item *models.ChecklistItem) (bool, error) {
	if !item.ItemType.IsAuto() || item.FieldName == nil {
		return false, fmt.Errorf("upsert %q: %w", item.ItemType, common.ErrInvalidItemType)
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.intakeExists(item.IntakeID); err != nil {
		return false, err
	}
	r.m.checklistWrites++
	now := r.m.clock()

	for _, it := range r.m.checklist {
		if it.IntakeID == item.IntakeID && it.Key() == item.Key() {
			it.Description = item.Description
			it.IsResolved, it.ResolvedAt, it.ResolvedBy = false, nil, nil
			it.UpdatedAt = now
			item.ID = it.ID
			item.IsResolved, item.ResolvedAt, item.ResolvedBy = false, nil, nil
			return false, nil
		}
	}

	item.ID = uuid.NewString()
	item.IsResolved, item.ResolvedAt, item.ResolvedBy = false, nil, nil
	item.CreatedAt, item.UpdatedAt = now, now
	r.m.checklist = append(r.m.checklist, clone(item))
	return true, nil
}

func (r memChecklist) Create(_ context.Context, item *models.ChecklistItem) (*models.ChecklistItem, error) {
	if !item.ItemType.IsManual() {
		return nil, fmt.Errorf("create %q: %w", item.ItemType, common.ErrInvalidItemType)
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.intakeExists(item.IntakeID); err != nil {
		return nil, err
	}
	r.m.checklistWrites++
	item.ID = uuid.NewString()
	item.CreatedAt = r.m.clock()
	item.UpdatedAt = item.CreatedAt
	r.m.checklist = append(r.m.checklist, clone(item))
	return item, nil
}

func (r memChecklist) MarkResolved(_ context.Context, id string, resolvedBy *string, at time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, it := range r.m.checklist {
		if it.ID == id && !it.IsResolved {
			r.m.checklistWrites++
			it.IsResolved = true
			it.ResolvedAt = &at
			it.ResolvedBy = resolvedBy
			it.UpdatedAt = r.m.clock()
			return true, nil
		}
	}
	return false, nil
}

type memPackets struct{ m *InMemoryRepositoryManager }

func (r memPackets) Create(_ context.Context, req *models.PacketRequest) (*models.PacketRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.intakeExists(req.IntakeID); err != nil {
		return nil, err
	}
	req.ID = uuid.NewString()
	req.Status = models.PacketPending
	req.CreatedAt = r.m.clock()
	r.m.packets = append(r.m.packets, clone(req))
	return req, nil
}

func (r memPackets) GetByID(_ context.Context, id string) (*models.PacketRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if p := r.find(id); p != nil {
		return clone(p), nil
	}
	return nil, fmt.Errorf("packet request: %w", common.ErrorNotFound)
}

func (r memPackets) find(id string) *models.PacketRequest {
	for _, p := range r.m.packets {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r memPackets) LatestByIntake(_ context.Context, intakeID string) (*models.PacketRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i := len(r.m.packets) - 1; i >= 0; i-- {
		if r.m.packets[i].IntakeID == intakeID {
			return clone(r.m.packets[i]), nil
		}
	}
	return nil, fmt.Errorf("packet request: %w", common.ErrorNotFound)
}

func (r memPackets) transition(id string, to models.PacketStatus, apply func(p *models.PacketRequest)) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p := r.find(id)
	if p == nil || !p.Status.CanTransitionTo(to) {
		return fmt.Errorf("packet request %s -> %s: %w", id, to, common.ErrInvalidTransition)
	}
	p.Status = to
	apply(p)
	return nil
}

func (r memPackets) MarkProcessing(_ context.Context, id string, at time.Time) error {
	return r.transition(id, models.PacketProcessing, func(p *models.PacketRequest) { p.StartedAt = &at })
}

func (r memPackets) MarkCompleted(_ context.Context, id, summaryKey, archiveKey string, at time.Time) error {
	return r.transition(id, models.PacketCompleted, func(p *models.PacketRequest) {
		p.ResultLocation, p.ArchiveLocation, p.CompletedAt, p.ErrorMessage = &summaryKey, &archiveKey, &at, nil
	})
}

func (r memPackets) MarkFailed(_ context.Context, id, message string, at time.Time) error {
	return r.transition(id, models.PacketFailed, func(p *models.PacketRequest) {
		p.ErrorMessage, p.CompletedAt = &message, &at
	})
}

func (r memPackets) ListStale(_ context.Context, startedBefore time.Time) ([]*models.PacketRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.PacketRequest
	for _, p := range r.m.packets {
		if p.Status == models.PacketProcessing && p.StartedAt != nil && p.StartedAt.Before(startedBefore) {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

type memAudit struct{ m *InMemoryRepositoryManager }

func (r memAudit) Create(_ context.Context, rec *models.AuditRecord) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.CreatedAt = r.m.clock()
	r.m.audit = append(r.m.audit, clone(rec))
	return nil
}

func (r memAudit) ListByResource(_ context.Context, resource, resourceID string) ([]*models.AuditRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.AuditRecord
	for _, rec := range r.m.audit {
		if rec.Resource == resource && rec.ResourceID == resourceID {
			out = append(out, clone(rec))
		}
	}
	return out, nil
}

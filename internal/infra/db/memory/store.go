// Package memory keeps reports and animals in-process. It backs local runs
// without a database and the HTTP tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bryanwahyu/animal-aid/internal/domain/animals"
	"github.com/bryanwahyu/animal-aid/internal/domain/reports"
)

// ReportStore keeps reports in-process.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[reports.ReportID]reports.InjuryReport
}

func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[reports.ReportID]reports.InjuryReport)}
}

func (m *ReportStore) Save(_ context.Context, r *reports.InjuryReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.reports[r.ID]; exists {
		return fmt.Errorf("duplicate report id %s", r.ID)
	}
	m.reports[r.ID] = *r
	return nil
}

func (m *ReportStore) Get(_ context.Context, id reports.ReportID) (*reports.InjuryReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// ListAll returns reports newest first, ties broken by id desc.
func (m *ReportStore) ListAll(_ context.Context) ([]*reports.InjuryReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*reports.InjuryReport, 0, len(m.reports))
	for _, r := range m.reports {
		r := r
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// AnimalStore keeps animals in-process with sequential ids.
type AnimalStore struct {
	mu      sync.RWMutex
	nextID  animals.AnimalID
	animals map[animals.AnimalID]animals.Animal
}

func NewAnimalStore() *AnimalStore {
	return &AnimalStore{nextID: 1, animals: make(map[animals.AnimalID]animals.Animal)}
}

func (m *AnimalStore) Save(_ context.Context, a *animals.Animal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID
	m.nextID++
	cp := *a
	cp.Tags = append([]string(nil), a.Tags...)
	m.animals[a.ID] = cp
	return nil
}

func (m *AnimalStore) Get(_ context.Context, id animals.AnimalID) (*animals.Animal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.animals[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *AnimalStore) List(_ context.Context) ([]*animals.Animal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*animals.Animal, 0, len(m.animals))
	for _, a := range m.animals {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *AnimalStore) Delete(_ context.Context, id animals.AnimalID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.animals[id]; !ok {
		return false, nil
	}
	delete(m.animals, id)
	return true, nil
}

// Check implements middleware.HealthChecker
func (m *ReportStore) Check(context.Context) error { return nil }

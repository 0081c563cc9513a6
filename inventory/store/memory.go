// Package store provides inventory.Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/faycal-henaoui/wood-workshop/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	materials map[string]inventory.Material
	scrap     map[string]inventory.ScrapPiece
	recipes   map[string][]inventory.RecipeLine
	nextScrap int
}

func NewMemory() *Memory {
	return &Memory{
		materials: make(map[string]inventory.Material),
		scrap:     make(map[string]inventory.ScrapPiece),
		recipes:   make(map[string][]inventory.RecipeLine),
	}
}

// PutMaterial seeds or replaces a material.
func (m *Memory) PutMaterial(mat inventory.Material) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.materials[mat.ID] = mat
}

// PutRecipe seeds a product's bill of materials.
func (m *Memory) PutRecipe(productID string, lines []inventory.RecipeLine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipes[productID] = lines
}

// PutScrap seeds a scrap piece, assigning an ID when none is set.
func (m *Memory) PutScrap(piece inventory.ScrapPiece) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if piece.ID == "" {
		m.nextScrap++
		piece.ID = fmt.Sprintf("scrap-%d", m.nextScrap)
	}
	m.scrap[piece.ID] = piece
	return piece.ID
}

// Scrap returns a piece by ID, or nil.
func (m *Memory) Scrap(id string) *inventory.ScrapPiece {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.scrap[id]; ok {
		return &p
	}
	return nil
}

func (m *Memory) GetMaterial(_ context.Context, id string) (*inventory.Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mat, ok := m.materials[id]; ok {
		return &mat, nil
	}
	return nil, nil
}

func (m *Memory) GetMaterials(_ context.Context, ids []string) (map[string]inventory.Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]inventory.Material, len(ids))
	for _, id := range ids {
		if mat, ok := m.materials[id]; ok {
			out[id] = mat
		}
	}
	return out, nil
}

func (m *Memory) SetMaterialQuantity(_ context.Context, id string, quantity decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mat, ok := m.materials[id]
	if !ok {
		return inventory.ErrMaterialNotFound
	}
	mat.Quantity = quantity
	m.materials[id] = mat
	return nil
}

func (m *Memory) SetMaterialStock(_ context.Context, id string, quantity, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mat, ok := m.materials[id]
	if !ok {
		return inventory.ErrMaterialNotFound
	}
	mat.Quantity = quantity
	mat.Price = price
	m.materials[id] = mat
	return nil
}

func (m *Memory) RecipeFor(_ context.Context, productID string) ([]inventory.RecipeLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lines := make([]inventory.RecipeLine, len(m.recipes[productID]))
	copy(lines, m.recipes[productID])
	return lines, nil
}

func (m *Memory) ScrapForMaterial(_ context.Context, materialID string) ([]inventory.ScrapPiece, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var pieces []inventory.ScrapPiece
	for _, p := range m.scrap {
		if p.MaterialID == materialID {
			pieces = append(pieces, p)
		}
	}
	// Deterministic order: oldest first, ID as tiebreak.
	sort.Slice(pieces, func(i, j int) bool {
		if !pieces[i].CreatedAt.Equal(pieces[j].CreatedAt) {
			return pieces[i].CreatedAt.Before(pieces[j].CreatedAt)
		}
		return pieces[i].ID < pieces[j].ID
	})
	return pieces, nil
}

func (m *Memory) CreateScrap(_ context.Context, piece inventory.ScrapPiece) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if piece.ID == "" {
		m.nextScrap++
		piece.ID = fmt.Sprintf("scrap-%d", m.nextScrap)
	}
	m.scrap[piece.ID] = piece
	return nil
}

func (m *Memory) UpdateScrap(_ context.Context, piece inventory.ScrapPiece) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scrap[piece.ID]; !ok {
		return fmt.Errorf("scrap %s does not exist", piece.ID)
	}
	m.scrap[piece.ID] = piece
	return nil
}

func (m *Memory) DeleteScrap(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scrap, id)
	return nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support, simulated with a
// snapshot + restore on error.
type TxMemory struct {
	*Memory
}

var _ inventory.TxStore = (*TxMemory)(nil)

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

func (tm *TxMemory) WithTx(ctx context.Context, fn func(inventory.Store) error) error {
	snapshot := tm.snapshot()
	if err := fn(tm.Memory); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	materials map[string]inventory.Material
	scrap     map[string]inventory.ScrapPiece
	nextScrap int
}

func (tm *TxMemory) snapshot() memorySnapshot {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	mats := make(map[string]inventory.Material, len(tm.materials))
	for k, v := range tm.materials {
		mats[k] = v
	}
	scrap := make(map[string]inventory.ScrapPiece, len(tm.scrap))
	for k, v := range tm.scrap {
		scrap[k] = v
	}
	return memorySnapshot{materials: mats, scrap: scrap, nextScrap: tm.nextScrap}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.materials = s.materials
	tm.scrap = s.scrap
	tm.nextScrap = s.nextScrap
}

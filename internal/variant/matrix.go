package variant

import (
	"fmt"
	"sort"
	"strings"

	"lojinha/models"
)

// Selection maps attribute ID to the chosen option ID.
type Selection map[uint]uint

// combinationKey is the canonical form of an option-ID set: the IDs
// sorted ascending and joined. Variants and selections with the same
// option set produce the same key.
func combinationKey(optionIDs []uint) string {
	sorted := make([]uint, len(optionIDs))
	copy(sorted, optionIDs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, "-")
}

type entry struct {
	variant *models.ProductVariant
	// optionByAttr: one option per attribute axis this variant varies on.
	optionByAttr map[uint]uint
}

// Matrix resolves option selections against a product's variants.
// It is pure selection-state computation: no persistence, rebuilt from
// the product rows whenever they change.
type Matrix struct {
	basePrice float64
	entries   []entry
	byKey     map[string]*entry
}

// NewMatrix indexes the product's variants by their sorted option-ID
// combination key for O(1) exact-match resolution.
func NewMatrix(basePrice float64, variants []models.ProductVariant) *Matrix {
	m := &Matrix{
		basePrice: basePrice,
		entries:   make([]entry, 0, len(variants)),
		byKey:     make(map[string]*entry, len(variants)),
	}
	for i := range variants {
		v := &variants[i]
		optionByAttr := make(map[uint]uint, len(v.Options))
		ids := make([]uint, 0, len(v.Options))
		for _, opt := range v.Options {
			optionByAttr[opt.AttributeID] = opt.ID
			ids = append(ids, opt.ID)
		}
		m.entries = append(m.entries, entry{variant: v, optionByAttr: optionByAttr})
		m.byKey[combinationKey(ids)] = &m.entries[len(m.entries)-1]
	}
	return m
}

// HasVariants reports whether variant pricing/stock supersedes the
// product-level fields.
func (m *Matrix) HasVariants() bool {
	return len(m.entries) > 0
}

// Resolve returns the variant whose option set equals the selection's
// option set exactly. A partial selection (fewer options than any variant
// carries) resolves to nil rather than to a superset variant.
func (m *Matrix) Resolve(sel Selection) *models.ProductVariant {
	if len(sel) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(sel))
	for _, optID := range sel {
		ids = append(ids, optID)
	}
	if e, ok := m.byKey[combinationKey(ids)]; ok {
		return e.variant
	}
	return nil
}

// OptionAvailable reports whether choosing optID for attrID can still lead
// to a purchasable variant: some active variant with stock contains the
// option and agrees with every *other* currently selected attribute. The
// probed attribute's own prior choice is ignored, so switching within an
// attribute always re-evaluates.
func (m *Matrix) OptionAvailable(sel Selection, attrID, optID uint) bool {
	for _, e := range m.entries {
		if !e.variant.IsActive || e.variant.Stock <= 0 {
			continue
		}
		if e.optionByAttr[attrID] != optID {
			continue
		}
		matches := true
		for selAttr, selOpt := range sel {
			if selAttr == attrID {
				continue
			}
			if e.optionByAttr[selAttr] != selOpt {
				matches = false
				break
			}
		}
		if matches {
			return true
		}
	}
	return false
}

// AutoSelect pre-selects the options of the only variant when exactly one
// exists, so its price and stock take effect without user interaction.
func (m *Matrix) AutoSelect() Selection {
	if len(m.entries) != 1 {
		return Selection{}
	}
	sel := make(Selection, len(m.entries[0].optionByAttr))
	for attrID, optID := range m.entries[0].optionByAttr {
		sel[attrID] = optID
	}
	return sel
}

// EffectivePrice is basePrice + the resolved variant's adjustment, or the
// base price while no variant is resolved.
func (m *Matrix) EffectivePrice(sel Selection) float64 {
	if v := m.Resolve(sel); v != nil {
		return m.basePrice + v.PriceAdjustment
	}
	return m.basePrice
}

// EffectiveStock is the resolved variant's stock; -1 means unresolved and
// the caller should fall back to product-level stock or a price range.
func (m *Matrix) EffectiveStock(sel Selection) int {
	if v := m.Resolve(sel); v != nil {
		return v.Stock
	}
	return -1
}

// PriceRange is [min, max] of basePrice + adjustment over all variants,
// shown while the selection is incomplete. ok is false without variants.
func (m *Matrix) PriceRange() (min, max float64, ok bool) {
	if len(m.entries) == 0 {
		return 0, 0, false
	}
	min = m.basePrice + m.entries[0].variant.PriceAdjustment
	max = min
	for _, e := range m.entries[1:] {
		price := m.basePrice + e.variant.PriceAdjustment
		if price < min {
			min = price
		}
		if price > max {
			max = price
		}
	}
	return min, max, true
}

// Select returns a copy of sel with the choice applied. Selections are
// treated as values so every user choice re-runs resolution from scratch.
func Select(sel Selection, attrID, optID uint) Selection {
	next := make(Selection, len(sel)+1)
	for k, v := range sel {
		next[k] = v
	}
	next[attrID] = optID
	return next
}

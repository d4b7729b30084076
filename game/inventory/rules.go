package inventory

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// TransitionKind keys rule lookups by the directed pair of distinct
// container kinds an item is moving between.
type TransitionKind string

const (
	InventoryToToolbar   TransitionKind = "inventory-toolbar"
	ToolbarToInventory   TransitionKind = "toolbar-inventory"
	InventoryToEquipment TransitionKind = "inventory-equipment"
	EquipmentToInventory TransitionKind = "equipment-inventory"
	ToolbarToEquipment   TransitionKind = "toolbar-equipment"
	EquipmentToToolbar   TransitionKind = "equipment-toolbar"
	InventoryToGround    TransitionKind = "inventory-ground"
	GroundToInventory    TransitionKind = "ground-inventory"
	ToolbarToGround      TransitionKind = "toolbar-ground"
	GroundToToolbar      TransitionKind = "ground-toolbar"
	EquipmentToGround    TransitionKind = "equipment-ground"
	GroundToEquipment    TransitionKind = "ground-equipment"
)

// ErrUnknownTransition is returned when registering against a
// transition kind that is not one of the twelve defined pairs.
var ErrUnknownTransition = errors.New("inventory: unknown transition kind")

var transitions = map[ContainerKind]map[ContainerKind]TransitionKind{
	KindInventory: {
		KindToolbar:   InventoryToToolbar,
		KindEquipment: InventoryToEquipment,
		KindGround:    InventoryToGround,
	},
	KindToolbar: {
		KindInventory: ToolbarToInventory,
		KindEquipment: ToolbarToEquipment,
		KindGround:    ToolbarToGround,
	},
	KindEquipment: {
		KindInventory: EquipmentToInventory,
		KindToolbar:   EquipmentToToolbar,
		KindGround:    EquipmentToGround,
	},
	KindGround: {
		KindInventory: GroundToInventory,
		KindToolbar:   GroundToToolbar,
		KindEquipment: GroundToEquipment,
	},
}

// Transition returns the TransitionKind for a directed move between
// two distinct container kinds. ok is false for self-pairs and unknown
// kinds; intra-container moves never consult rules.
func Transition(from, to ContainerKind) (TransitionKind, bool) {
	k, ok := transitions[from][to]
	return k, ok
}

// RuleFn is a transfer validation predicate. It must not mutate
// container state. It may suspend on ctx-bound I/O (an external
// permission service, a faction check). Returning false, or any error,
// vetoes the transfer.
type RuleFn func(ctx context.Context, item *Item, srcSlot, dstSlot int, kind TransitionKind) (bool, error)

// RuleRegistry maps transition kinds to ordered predicate lists.
// Constructed at initialization and read-mostly afterward; external
// systems register their predicates during startup.
type RuleRegistry struct {
	mu     sync.RWMutex
	rules  map[TransitionKind][]RuleFn
	logger *zap.Logger
}

// NewRuleRegistry creates an empty registry covering the twelve
// transition kinds.
func NewRuleRegistry(logger *zap.Logger) *RuleRegistry {
	rules := make(map[TransitionKind][]RuleFn, len(kindNames)*3)
	for _, tos := range transitions {
		for _, kind := range tos {
			rules[kind] = nil
		}
	}
	return &RuleRegistry{rules: rules, logger: logger}
}

// Register appends fn to the predicate list for kind. Registering an
// unknown kind fails without side effects.
func (r *RuleRegistry) Register(kind TransitionKind, fn RuleFn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[kind]; !ok {
		return ErrUnknownTransition
	}
	r.rules[kind] = append(r.rules[kind], fn)
	return nil
}

// Verify runs kind's predicates strictly in registration order. The
// first predicate that returns false or errors short-circuits with
// overall failure. An empty predicate list permits the transfer.
func (r *RuleRegistry) Verify(ctx context.Context, kind TransitionKind, item *Item, srcSlot, dstSlot int) bool {
	r.mu.RLock()
	fns := make([]RuleFn, len(r.rules[kind]))
	copy(fns, r.rules[kind])
	r.mu.RUnlock()

	for _, fn := range fns {
		ok, err := fn(ctx, item, srcSlot, dstSlot, kind)
		if err != nil {
			r.logger.Warn("transfer rule errored",
				zap.String("transition", string(kind)),
				zap.Error(err))
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

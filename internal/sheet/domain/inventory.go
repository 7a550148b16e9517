package domain

import (
	"fmt"

	apperrors "github.com/louisbranch/dungeonsheet/internal/platform/errors"
)

// StackItem merges item into the inventory, returning the resulting
// sequence. A stack matches when both name and type are equal; a match
// increments its count, otherwise the item is appended as a new stack.
// The input slice is not modified.
func StackItem(inventory []Item, item Item) []Item {
	next := make([]Item, len(inventory))
	copy(next, inventory)

	for i := range next {
		if next[i].Name == item.Name && next[i].Type == item.Type {
			count := next[i].Count
			if count < 1 {
				count = 1
			}
			next[i].Count = count + item.Count
			return next
		}
	}
	return append(next, item)
}

// ConsumeItem uses one unit of the stack at index, returning the resulting
// sequence and the consumed stack's name. Stacks with count > 1 are
// decremented; a stack at count 1 is removed entirely. A negative index is
// invalid input; an index past the end names a stack that does not exist.
// Either way the inventory meaning is unchanged. The input slice is not
// modified.
func ConsumeItem(inventory []Item, index int) ([]Item, string, error) {
	if index < 0 {
		return nil, "", apperrors.New(apperrors.CodeItemInvalidIndex,
			fmt.Sprintf("item index %d is negative", index))
	}
	if index >= len(inventory) {
		return nil, "", apperrors.New(apperrors.CodeItemNotFound,
			fmt.Sprintf("no inventory item at index %d", index))
	}

	next := make([]Item, len(inventory))
	copy(next, inventory)

	name := next[index].Name
	if next[index].Count > 1 {
		next[index].Count--
		return next, name, nil
	}
	return append(next[:index], next[index+1:]...), name, nil
}

package main

import (
	"fmt"
	"strconv"

	"github.com/aretw0/synclist"
	"github.com/aretw0/synclist/pkg/collection"
)

type listNode struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []listNode
}

// buildTree maps a running list onto introspection's tree diagram.
// Status must match classes in introspection.DefaultStyles().
func buildTree(list *synclist.List[string], state collection.CollectionState) listNode {
	loopState := list.Loop.State()

	loop := listNode{
		Name:     "Loop",
		Status:   fmt.Sprint(loopState.Status),
		Metadata: loopState.Metadata,
	}

	status := "running"
	if state.Rejected > 0 {
		status = "suspended"
	}
	col := listNode{
		Name:   "Collection",
		Status: status,
		Metadata: map[string]string{
			"type":        "container",
			"count":       strconv.Itoa(state.Count),
			"subscribers": strconv.Itoa(state.Subscribers),
			"applied":     strconv.FormatUint(state.Applied, 10),
			"rejected":    strconv.FormatUint(state.Rejected, 10),
		},
	}

	root := listNode{
		Name:     "List",
		Status:   "running",
		Metadata: map[string]string{"type": "container"},
		Children: []listNode{loop, col},
	}

	if list.Source != nil {
		src := list.Source.State()
		root.Children = append(root.Children, listNode{
			Name:     "Journal",
			Status:   fmt.Sprint(src.Status),
			Metadata: src.Metadata,
		})
	}
	return root
}

package gcrc

import (
	"fmt"
	"reflect"
)

// typeNameOf and unsafeSizeofValue back boxHeader's diagnostic-only
// thunks (see box.go). Neither participates in the collection algorithm,
// and neither is reported through Stats or the introspection server.
func typeNameOf(v any) string {
	return fmt.Sprintf("%T", v)
}

func unsafeSizeofValue(v any) uintptr {
	t := reflect.TypeOf(v)
	if t == nil {
		return 0
	}

	return t.Size()
}

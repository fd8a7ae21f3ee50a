package stubs

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Verify compiles every embedded stub in a sandboxed Lua state and returns
// the first failure. The state opens no libraries at all: stubs are pure
// definitions and compilation does not execute them, so nothing beyond the
// compiler is needed.
func Verify() error {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	for _, name := range Files() {
		data, err := Read(name)
		if err != nil {
			return err
		}
		if _, err := L.LoadString(string(data)); err != nil {
			return fmt.Errorf("stub %s is not valid Lua: %w", name, err)
		}
	}
	return nil
}

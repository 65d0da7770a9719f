package processor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/thisisjab/oafilter/entity"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	luajson "layeh.com/gopher-json"
)

const luaEntryPoint = "process_queryable"

type LuaProcessorConfig struct {
	Name       string `yaml:"-"`
	ScriptPath string `yaml:"script-path"`
}

// LuaProcessor rewrites queryables with a user provided lua script.
// The script MUST define a function named `process_queryable` which takes a queryable table
// (`id`, `type`, `values`, `finalized`, `minValue`, `maxValue`) and returns either the
// possibly modified table or nil to hide the queryable.
// Note that user can have access to JSON helper using `local json = require("json")`
type LuaProcessor struct {
	cfg   LuaProcessorConfig
	proto *lua.FunctionProto
	pool  *sync.Pool
}

func NewLuaProcessor(cfg LuaProcessorConfig) (*LuaProcessor, error) {
	script, err := os.ReadFile(cfg.ScriptPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read lua script: %w", err)
	}

	return newLuaProcessor(cfg, string(script))
}

func newLuaProcessor(cfg LuaProcessorConfig, script string) (*LuaProcessor, error) {
	chunk, err := parse.Parse(strings.NewReader(script), cfg.ScriptPath)
	if err != nil {
		return nil, fmt.Errorf("cannot parse lua script: %w", err)
	}

	proto, err := lua.Compile(chunk, cfg.ScriptPath)
	if err != nil {
		return nil, fmt.Errorf("cannot compile lua script: %w", err)
	}

	lp := &LuaProcessor{cfg: cfg, proto: proto}

	// Run the script once up front so that broken scripts fail at startup.
	L, err := lp.newState()
	if err != nil {
		return nil, err
	}
	if L.GetGlobal(luaEntryPoint).Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("lua script does not define function %q", luaEntryPoint)
	}

	lp.pool = &sync.Pool{
		New: func() any {
			L, err := lp.newState()
			if err != nil {
				// The same script already ran successfully above.
				panic(err)
			}
			return L
		},
	}
	lp.pool.Put(L)

	return lp, nil
}

func (lp *LuaProcessor) newState() (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // Don't load anything by default
	})

	// Only safe libraries; 'os' and 'io' stay closed.
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},  // Allows 'require'
		{lua.BaseLibName, lua.OpenBase},     // Allows 'print', 'pairs', etc.
		{lua.TabLibName, lua.OpenTable},     // Allows 'table.insert', etc.
		{lua.StringLibName, lua.OpenString}, // Allows string manipulation
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	// local json = require("json")
	luajson.Preload(L)

	L.Push(L.NewFunctionFromProto(lp.proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.Close()
		return nil, fmt.Errorf("cannot run lua script: %w", err)
	}

	return L, nil
}

func (lp *LuaProcessor) Name() string {
	return lp.cfg.Name
}

func (lp *LuaProcessor) Process(queryables []entity.Queryable) ([]entity.Queryable, error) {
	L := lp.pool.Get().(*lua.LState)
	defer lp.pool.Put(L)

	res := make([]entity.Queryable, 0, len(queryables))
	for _, q := range queryables {
		processed, keep, err := lp.processOne(L, q)
		if err != nil {
			return nil, fmt.Errorf("queryable %q: %w", q.ID, err)
		}
		if keep {
			res = append(res, processed)
		}
	}

	return res, nil
}

func (lp *LuaProcessor) processOne(L *lua.LState, q entity.Queryable) (entity.Queryable, bool, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return q, false, err
	}

	arg, err := luajson.Decode(L, data)
	if err != nil {
		return q, false, fmt.Errorf("cannot convert queryable to lua: %w", err)
	}

	err = L.CallByParam(lua.P{
		Fn:      L.GetGlobal(luaEntryPoint),
		NRet:    1,
		Protect: true,
	}, arg)
	if err != nil {
		return q, false, fmt.Errorf("lua script error: %w", err)
	}

	ret := L.Get(-1)
	// Clean up stack IMMEDIATELY after extraction
	L.Pop(1)

	switch ret.Type() {
	case lua.LTNil:
		return q, false, nil
	case lua.LTTable:
	default:
		return q, false, fmt.Errorf("%s must return a table or nil, got %s", luaEntryPoint, ret.Type())
	}

	encoded, err := luajson.Encode(ret)
	if err != nil {
		return q, false, fmt.Errorf("cannot convert lua table: %w", err)
	}

	var processed entity.Queryable
	if err := json.Unmarshal(encoded, &processed); err != nil {
		return q, false, fmt.Errorf("lua table is not a queryable: %w", err)
	}

	if processed.ID == "" {
		return q, false, errors.New("processed queryable has no id")
	}
	if !processed.Type.Valid() {
		return q, false, fmt.Errorf("processed queryable has unsupported type %q", processed.Type)
	}

	return processed, true, nil
}

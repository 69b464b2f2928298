// script_host.go - Lua scripting around a listing's execution
//
// A script runs once before the first instruction and can seed registers,
// flags and memory. If it defines after_run, that function is called after
// the program halts; returning false fails the listing.
//
// Lua API:
//   reg(name)               -> value of a general or segment register
//   set_reg(name, value)
//   peek(addr [, word])     -> byte, or little-endian word when word is true
//   poke(addr, value [, word])
//   flag(name)              -> bool, name is a letter or "zf" style
//   set_flag(name, bool)
//   clocks()                -> clocks executed so far
//   ip()                    -> instruction index, byte offset
//   print(...)              -> writes to the listing output
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/intuitionamiga/sim8086/cpu8086"
	lua "github.com/yuin/gopher-lua"
)

var errScriptRejected = errors.New("script after_run returned false")

type scriptHost struct {
	L    *lua.LState
	m    *cpu8086.Machine
	prog *cpu8086.Program
	out  io.Writer
	path string
}

func newScriptHost(ctx context.Context, m *cpu8086.Machine, prog *cpu8086.Program, out io.Writer) *scriptHost {
	L := lua.NewState()
	L.SetContext(ctx)
	h := &scriptHost{L: L, m: m, prog: prog, out: out}
	for name, fn := range map[string]lua.LGFunction{
		"reg":      h.luaReg,
		"set_reg":  h.luaSetReg,
		"peek":     h.luaPeek,
		"poke":     h.luaPoke,
		"flag":     h.luaFlag,
		"set_flag": h.luaSetFlag,
		"clocks":   h.luaClocks,
		"ip":       h.luaIP,
		"print":    h.luaPrint,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	return h
}

// Load runs the script body.
func (h *scriptHost) Load(path string) error {
	h.path = path
	if err := h.L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// AfterRun calls the script's after_run function, if it defined one.
func (h *scriptHost) AfterRun() error {
	fn := h.L.GetGlobal("after_run")
	if fn.Type() != lua.LTFunction {
		return nil
	}
	if err := h.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		return fmt.Errorf("script %s: after_run: %w", h.path, err)
	}
	ret := h.L.Get(-1)
	h.L.Pop(1)
	if ret.Type() == lua.LTBool && !lua.LVAsBool(ret) {
		return errScriptRejected
	}
	return nil
}

func (h *scriptHost) Close() {
	h.L.Close()
}

func (h *scriptHost) checkAddr(L *lua.LState, n int) uint16 {
	addr := L.CheckInt(n)
	if addr < 0 || addr > 0xFFFF {
		L.ArgError(n, fmt.Sprintf("address %d outside 0..65535", addr))
	}
	return uint16(addr)
}

func (h *scriptHost) checkFlag(L *lua.LState, n int) uint16 {
	name := L.CheckString(n)
	bit, ok := cpu8086.FlagByName(name)
	if !ok {
		L.ArgError(n, "unknown flag "+name)
	}
	return bit
}

func (h *scriptHost) luaReg(L *lua.LState) int {
	name := strings.ToLower(L.CheckString(1))
	if r, ok := cpu8086.RegisterByName(name); ok {
		L.Push(lua.LNumber(h.m.Reg(r)))
		return 1
	}
	if s, ok := cpu8086.SegmentByName(name); ok {
		L.Push(lua.LNumber(h.m.Seg(s)))
		return 1
	}
	L.ArgError(1, "unknown register "+name)
	return 0
}

func (h *scriptHost) luaSetReg(L *lua.LState) int {
	name := strings.ToLower(L.CheckString(1))
	value := uint16(L.CheckInt(2))
	if r, ok := cpu8086.RegisterByName(name); ok {
		h.m.SetReg(r, value)
		return 0
	}
	if s, ok := cpu8086.SegmentByName(name); ok {
		h.m.SetSeg(s, value)
		return 0
	}
	L.ArgError(1, "unknown register "+name)
	return 0
}

func (h *scriptHost) luaPeek(L *lua.LState) int {
	addr := h.checkAddr(L, 1)
	L.Push(lua.LNumber(h.m.Read(addr, L.OptBool(2, false))))
	return 1
}

func (h *scriptHost) luaPoke(L *lua.LState) int {
	addr := h.checkAddr(L, 1)
	h.m.Write(addr, uint16(L.CheckInt(2)), L.OptBool(3, false))
	return 0
}

func (h *scriptHost) luaFlag(L *lua.LState) int {
	L.Push(lua.LBool(h.m.Flag(h.checkFlag(L, 1))))
	return 1
}

func (h *scriptHost) luaSetFlag(L *lua.LState) int {
	h.m.SetFlag(h.checkFlag(L, 1), L.CheckBool(2))
	return 0
}

func (h *scriptHost) luaClocks(L *lua.LState) int {
	L.Push(lua.LNumber(h.m.Clocks))
	return 1
}

func (h *scriptHost) luaIP(L *lua.LState) int {
	L.Push(lua.LNumber(h.m.IP))
	L.Push(lua.LNumber(h.prog.Offset(h.m.IP)))
	return 2
}

func (h *scriptHost) luaPrint(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.Get(i + 1).String()
	}
	fmt.Fprintln(h.out, strings.Join(parts, "\t"))
	return 0
}

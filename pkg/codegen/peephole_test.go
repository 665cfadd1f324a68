package codegen_test

import (
	"reflect"
	"testing"

	"rvcc.dev/compiler/pkg/codegen"
)

func TestNormalizeRewrites(t *testing.T) {
	t.Run("addi rd, x0, k becomes li", func(t *testing.T) {
		in := []codegen.Instruction{codegen.AddiInst{Rd: codegen.A0, Rs1: codegen.Zero, Imm: codegen.Imm(7)}}
		want := []codegen.Instruction{codegen.LiInst{Rd: codegen.A0, Imm: codegen.Imm(7)}}
		assertNormalized(t, in, want)
	})

	t.Run("addi rd, rs, 0 becomes mv", func(t *testing.T) {
		in := []codegen.Instruction{codegen.AddiInst{Rd: codegen.A0, Rs1: codegen.A1, Imm: codegen.Imm(0)}}
		want := []codegen.Instruction{codegen.MvInst{Rd: codegen.A0, Rs: codegen.A1}}
		assertNormalized(t, in, want)
	})

	t.Run("add rd, x0, rs becomes mv", func(t *testing.T) {
		in := []codegen.Instruction{codegen.AddInst{Rd: codegen.A0, Rs1: codegen.Zero, Rs2: codegen.A1}}
		want := []codegen.Instruction{codegen.MvInst{Rd: codegen.A0, Rs: codegen.A1}}
		assertNormalized(t, in, want)
	})

	t.Run("add rd, rs, x0 becomes mv", func(t *testing.T) {
		in := []codegen.Instruction{codegen.AddInst{Rd: codegen.A0, Rs1: codegen.A1, Rs2: codegen.Zero}}
		want := []codegen.Instruction{codegen.MvInst{Rd: codegen.A0, Rs: codegen.A1}}
		assertNormalized(t, in, want)
	})

	t.Run("mv rd, rd is dropped", func(t *testing.T) {
		in := []codegen.Instruction{
			codegen.MvInst{Rd: codegen.A0, Rs: codegen.A0},
			codegen.RetInst{},
		}
		want := []codegen.Instruction{codegen.RetInst{}}
		assertNormalized(t, in, want)
	})

	t.Run("unrelated instructions pass through unchanged", func(t *testing.T) {
		in := []codegen.Instruction{codegen.MulInst{Rd: codegen.A0, Rs1: codegen.A1, Rs2: codegen.A2}}
		assertNormalized(t, in, in)
	})

	t.Run("addi rd, rd, 0 is dropped outright, not turned into a self-mv", func(t *testing.T) {
		in := []codegen.Instruction{
			codegen.AddiInst{Rd: codegen.A0, Rs1: codegen.A0, Imm: codegen.Imm(0)},
			codegen.RetInst{},
		}
		want := []codegen.Instruction{codegen.RetInst{}}
		assertNormalized(t, in, want)
	})

	t.Run("add rd, x0, rd is dropped outright, not turned into a self-mv", func(t *testing.T) {
		in := []codegen.Instruction{
			codegen.AddInst{Rd: codegen.A0, Rs1: codegen.Zero, Rs2: codegen.A0},
			codegen.RetInst{},
		}
		want := []codegen.Instruction{codegen.RetInst{}}
		assertNormalized(t, in, want)
	})

	t.Run("add rd, rd, x0 is dropped outright, not turned into a self-mv", func(t *testing.T) {
		in := []codegen.Instruction{
			codegen.AddInst{Rd: codegen.A0, Rs1: codegen.A0, Rs2: codegen.Zero},
			codegen.RetInst{},
		}
		want := []codegen.Instruction{codegen.RetInst{}}
		assertNormalized(t, in, want)
	})
}

func TestNormalizeIsIdempotent(t *testing.T) {
	in := []codegen.Instruction{
		codegen.AddiInst{Rd: codegen.A0, Rs1: codegen.Zero, Imm: codegen.Imm(7)},
		codegen.AddiInst{Rd: codegen.A1, Rs1: codegen.A2, Imm: codegen.Imm(0)},
		codegen.AddiInst{Rd: codegen.A4, Rs1: codegen.A4, Imm: codegen.Imm(0)},
		codegen.MvInst{Rd: codegen.A3, Rs: codegen.A3},
	}

	once := codegen.Normalize(in)
	twice := codegen.Normalize(once)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("Normalize is not idempotent: once=%#v twice=%#v", once, twice)
	}
}

func assertNormalized(t *testing.T, in, want []codegen.Instruction) {
	t.Helper()
	got := codegen.Normalize(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize(%#v) = %#v, want %#v", in, got, want)
	}
}

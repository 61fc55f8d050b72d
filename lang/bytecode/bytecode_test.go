package bytecode

import (
	"testing"

	"github.com/mna/seni/lang/iname"
	"github.com/mna/seni/lang/pack"
	"github.com/stretchr/testify/require"
)

func TestOpcodeStringKnownAndUnknown(t *testing.T) {
	require.Equal(t, "append", APPEND.String())
	require.Equal(t, "stop", STOP.String())
	require.Contains(t, Opcode(250).String(), "opcode(250)")
}

func TestMemString(t *testing.T) {
	require.Equal(t, "Argument", MemArgument.String())
	require.Equal(t, "Void", MemVoid.String())
}

func TestPackUnpackRoundTrip(t *testing.T) {
	names := iname.NewTable()
	fooIname := names.Intern("foo")

	prog := &Program{Code: []Bytecode{
		{Op: APPEND, Arg0: Arg{Kind: ArgInt, Int: 42}, Arg1: Arg{Kind: ArgMem, Mem: MemLocal, Slot: 2}},
		{Op: LOAD, Arg0: Arg{Kind: ArgName, Iname: uint32(fooIname)}, Arg1: Arg{Kind: ArgNone}},
		{Op: STOP},
	}}

	w := pack.NewWriter()
	require.NoError(t, Pack(w, prog, names))

	names2 := iname.NewTable()
	r := pack.NewReader(w.String())
	got, err := Unpack(r, names2)
	require.NoError(t, err)
	require.Len(t, got.Code, 3)
	require.Equal(t, APPEND, got.Code[0].Op)
	require.Equal(t, int64(42), got.Code[0].Arg0.Int)
	require.Equal(t, MemLocal, got.Code[0].Arg1.Mem)
	require.Equal(t, 2, got.Code[0].Arg1.Slot)
	require.Equal(t, "foo", names2.Lookup(iname.Iname(got.Code[1].Arg0.Iname)))
	require.Equal(t, STOP, got.Code[2].Op)
}

package target

import "testing"

func TestKnownTargetsValidate(t *testing.T) {
	for _, triple := range []string{"x86_64-linux-gnu", "aarch64-linux-gnu", "arm-linux-gnueabi"} {
		tgt, ok := Known(triple)
		if !ok {
			t.Fatalf("%s: expected known target", triple)
		}
		if err := tgt.Validate(); err != nil {
			t.Fatalf("%s: %v", triple, err)
		}
	}
	if _, ok := Known("mips-unknown"); ok {
		t.Fatalf("unexpected known target")
	}
}

func TestValidateRejectsOddPointerSize(t *testing.T) {
	tgt := Target{Triple: "odd", PtrSize: 2, PtrAlign: 2}
	if err := tgt.Validate(); err == nil {
		t.Fatalf("expected error for 2-byte pointers")
	}
}

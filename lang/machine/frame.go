package machine

import "github.com/mna/seni/lang/value"

// execCall implements CALL (spec.md "Function invocation"): the caller has
// already pushed num_args and addr via two address-correction-patched LOAD
// Constant instructions; this builds the new frame and jumps into the
// callee's arg/defaults block. The CALL instruction's own Arg0/Arg1
// (fn-info-index) are compile-time-only, consumed solely by the
// address-correction pass, and are never read here.
func (vm *VM) execCall() error {
	// Pushed in order (arg_address, num_args) -- spec.md "Function
	// invocation" step 1 -- so num_args is on top of the stack.
	numArgs, err := vm.popInt()
	if err != nil {
		return err
	}
	addr, err := vm.popInt()
	if err != nil {
		return err
	}
	return vm.buildFrameAndJump(addr, numArgs)
}

// execCallF is CALL_F: like execCall, but the callee is not known at
// compile time, so the fn-info-index itself arrives on the stack and
// ArgAddress/NumArgs are looked up from FnInfo at run time (spec.md
// "address-of"/"fn-call").
func (vm *VM) execCallF() error {
	fi, err := vm.popInt()
	if err != nil {
		return err
	}
	if fi < 0 || fi >= len(vm.Prog.FnInfo) {
		return newFault(FaultTypeMismatch, vm.ip-1, "CALL_F fn-info-index %d out of range", fi)
	}
	info := vm.Prog.FnInfo[fi]
	return vm.buildFrameAndJump(info.ArgAddress, info.NumArgs)
}

func (vm *VM) buildFrameAndJump(addr, numArgs int) error {
	if numArgs < 0 {
		return newFault(FaultTypeMismatch, vm.ip-1, "negative num_args %d", numArgs)
	}
	// Reserve 2*numArgs uninitialized argument slots (label, value per arg);
	// these are filled in by the STORE Argument instructions the compiler
	// emits per caller-supplied label before CALL_0 commits to the body.
	newFP := vm.sp + numArgs*2
	required := newFP + frameHeaderSize + MemoryLocalSize
	if required > len(vm.Stack) {
		return newFault(FaultStackOverflow, vm.ip-1, "call would need %d, have %d", required, len(vm.Stack))
	}
	for i := vm.sp; i < newFP; i++ {
		vm.Stack[i] = value.Bool(false) // uninitialized argument slot
	}
	vm.Stack[newFP+0] = value.Int(int32(vm.fp))
	vm.Stack[newFP+1] = value.Int(int32(vm.ip))
	vm.Stack[newFP+2] = value.Int(int32(numArgs))
	vm.Stack[newFP+3] = value.Int(int32(vm.currentHopBack() + 1))
	vm.sp = required
	vm.fp = newFP
	vm.ip = addr
	return nil
}

// execCall0 is CALL_0: the defaults/arg block has finished (any caller
// overrides have already been STOREd into the argument slots above); reset
// this frame's hop_back to 0 and jump into the function body proper
// (spec.md "Function invocation"). The frame's saved return-ip, set by
// CALL to the address right after CALL (used by RET_0 to hand control
// back for the label-store sequence), is re-pointed here to the address
// right after CALL_0 -- the address the real RET at the end of the body
// must return to. Without this update RET would jump back into the
// label-store sequence and re-enter the call.
func (vm *VM) execCall0() error {
	addr, err := vm.popInt()
	if err != nil {
		return err
	}
	vm.Stack[vm.fp+1] = value.Int(int32(vm.ip))
	vm.Stack[vm.fp+3] = value.Int(0)
	vm.ip = addr
	return nil
}

// execCallF0 is CALL_F_0: like execCall0, but the fn-info-index (not a
// literal body address) is on the stack, looked up the same way as
// execCallF.
func (vm *VM) execCallF0() error {
	fi, err := vm.popInt()
	if err != nil {
		return err
	}
	if fi < 0 || fi >= len(vm.Prog.FnInfo) {
		return newFault(FaultTypeMismatch, vm.ip-1, "CALL_F_0 fn-info-index %d out of range", fi)
	}
	vm.Stack[vm.fp+1] = value.Int(int32(vm.ip))
	vm.Stack[vm.fp+3] = value.Int(0)
	vm.ip = vm.Prog.FnInfo[fi].BodyAddress
	return nil
}

// execRet is RET: pop the return value, read this frame's header, collapse
// the stack back past the argument region, restore fp/ip, and re-push the
// return value. RET only ever unwinds a function-call frame; the top-level
// program always terminates via STOP, never RET, so there is no "done"
// case here.
func (vm *VM) execRet() (done bool, result value.Var, err error) {
	retVal, err := vm.pop()
	if err != nil {
		return false, nil, err
	}
	callerFP, ok := vm.Stack[vm.fp+0].(value.Int)
	if !ok {
		return false, nil, newFault(FaultTypeMismatch, vm.ip-1, "corrupt frame header at fp=%d", vm.fp)
	}
	returnIP, ok := vm.Stack[vm.fp+1].(value.Int)
	if !ok {
		return false, nil, newFault(FaultTypeMismatch, vm.ip-1, "corrupt frame header at fp=%d", vm.fp)
	}
	numArgs, ok := vm.Stack[vm.fp+2].(value.Int)
	if !ok {
		return false, nil, newFault(FaultTypeMismatch, vm.ip-1, "corrupt frame header at fp=%d", vm.fp)
	}
	vm.sp = vm.fp - int(numArgs)*2
	vm.fp = int(callerFP)
	vm.ip = int(returnIP)
	if err := vm.push(retVal); err != nil {
		return false, nil, err
	}
	return false, nil, nil
}

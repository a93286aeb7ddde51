package benchmarks

// GetMicrobenchmarks returns the standard set of microbenchmarks.
// Each benchmark targets a specific timing characteristic.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		functionCalls(),
		branchTaken(),
		divideHeavy(),
		uncachedLoop(),
	}
}

// GetCoreBenchmarks returns a minimal set of benchmarks for quick
// validation: a loop, calls and memory traffic.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		branchTaken(),
		functionCalls(),
		memorySequential(),
	}
}

// 1. Arithmetic Sequential - independent ALU operations
func arithmeticSequential() Benchmark {
	var body []uint32
	for range 4 {
		for r := uint8(regT0); r <= regT4; r++ {
			body = append(body, EncodeADDIU(r, r, 1))
		}
	}
	body = append(body, EncodeADDU(regV0, regT4, regZero))

	return Benchmark{
		Name:         "arithmetic_sequential",
		Description:  "20 independent ADDIU operations - measures ALU throughput",
		Program:      withExit(ProgramBase, body...),
		ExpectedExit: 4,
	}
}

// 2. Dependency Chain - every instruction consumes the previous result
func dependencyChain() Benchmark {
	body := []uint32{EncodeADDU(regV0, regZero, regZero)}
	for range 20 {
		body = append(body, EncodeADDIU(regV0, regV0, 1))
	}

	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDIUs ($v0 += 1) - measures back-to-back latency",
		Program:      withExit(ProgramBase, body...),
		ExpectedExit: 20,
	}
}

// 3. Memory Sequential - stores then dependent loads
func memorySequential() Benchmark {
	body := []uint32{
		EncodeLUI(regT0, 0x8001), // data at 0x80010000
		EncodeADDU(regV0, regZero, regZero),
	}
	for i := range int16(5) {
		body = append(body,
			EncodeADDIU(regT1, regZero, i+1),
			EncodeSW(regT1, regT0, 4*i),
		)
	}
	for i := range int16(5) {
		body = append(body,
			EncodeLW(regT2, regT0, 4*i),
			EncodeADDU(regV0, regV0, regT2), // load-use
		)
	}

	return Benchmark{
		Name:         "memory_sequential",
		Description:  "5 stores then 5 load-use pairs - measures D-cache and hazard cost",
		Program:      withExit(ProgramBase, body...),
		ExpectedExit: 15,
	}
}

// 4. Function Calls - JAL/JR round trips
func functionCalls() Benchmark {
	// main: 7 words, exit: 4 words, then the callee.
	callee := ProgramBase + 4*(7+4)
	main := []uint32{
		EncodeADDU(regV0, regZero, regZero),
		EncodeJAL(callee),
		EncodeNOP(),
		EncodeJAL(callee),
		EncodeNOP(),
		EncodeJAL(callee),
		EncodeNOP(),
	}
	program := withExit(ProgramBase, main...)
	program = append(program,
		EncodeADDIU(regV0, regV0, 1),
		EncodeJR(regRA),
		EncodeNOP(),
	)

	return Benchmark{
		Name:         "function_calls",
		Description:  "3 JAL/JR call-return pairs - measures jump overhead",
		Program:      program,
		ExpectedExit: 3,
	}
}

func countedLoop(iterations int16) []uint32 {
	return []uint32{
		EncodeADDIU(regT0, regZero, iterations),
		EncodeADDU(regV0, regZero, regZero),
		// loop:
		EncodeADDIU(regV0, regV0, 1),
		EncodeADDIU(regT0, regT0, -1),
		EncodeBNE(regT0, regZero, -3),
		EncodeNOP(),
	}
}

// 5. Branch Taken - a counted loop
func branchTaken() Benchmark {
	return Benchmark{
		Name:         "branch_taken",
		Description:  "50-iteration counted loop - measures taken branch cost",
		Program:      withExit(ProgramBase, countedLoop(50)...),
		ExpectedExit: 50,
	}
}

// 6. Divide Heavy - long-latency HI/LO operations
func divideHeavy() Benchmark {
	body := []uint32{
		EncodeADDIU(regT0, regZero, 1000),
		EncodeADDIU(regT1, regZero, 3),
	}
	for range 4 {
		body = append(body,
			EncodeDIV(regT0, regT1),
			EncodeMFLO(regV0),
		)
	}

	return Benchmark{
		Name:         "divide_heavy",
		Description:  "4 DIV/MFLO pairs - measures divider latency",
		Program:      withExit(ProgramBase, body...),
		ExpectedExit: 333,
	}
}

// 7. Uncached Loop - the counted loop fetched through kseg1
func uncachedLoop() Benchmark {
	const base = 0xa0000000

	return Benchmark{
		Name:         "uncached_loop",
		Description:  "50-iteration counted loop in kseg1 - measures uncached fetch cost",
		Base:         base,
		Program:      withExit(base, countedLoop(50)...),
		ExpectedExit: 50,
	}
}

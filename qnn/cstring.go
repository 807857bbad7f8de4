package qnn

import "unsafe"

// maxCStringLen bounds the scan for a terminator in memory owned by the
// backend. Backend messages are short; anything longer is treated as corrupt
// and truncated.
const maxCStringLen = 1 << 16

// cStringToGo copies a NUL-terminated string owned by native code.
// Null and low addresses, which no mapped string can live at, yield "".
func cStringToGo(ptr uintptr) string {
	if ptr < 4096 {
		return ""
	}

	// #nosec G103 -- pointer comes from the backend and is only read up to the terminator.
	bytes := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), maxCStringLen)
	for i, b := range bytes {
		if b == 0 {
			return string(bytes[:i])
		}
	}
	return string(bytes)
}

// goToCString returns a NUL-terminated copy of s and a pointer to its first
// byte. The caller must keep the slice reachable (runtime.KeepAlive) until the
// native call that receives the pointer has returned.
func goToCString(s string) ([]byte, uintptr) {
	b := append([]byte(s), 0)
	return b, uintptr(unsafe.Pointer(&b[0]))
}

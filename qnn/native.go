package qnn

import (
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"
)

// nativeBackend calls the entry points of a FunctionTable through purego.
type nativeBackend struct {
	initialize        func(level uint32, logCallback uintptr, out *uintptr) int32
	isDeviceSupported func(backend uintptr) int32
	createDevice      func(backend uintptr, out *uintptr) int32
	createProfile     func(backend uintptr, level uint32, out *uintptr) int32
	createContext     func(backend, device uintptr, out *uintptr) int32
	composeGraphs     func(backend, context uintptr, debug uint32, outGraphs *uintptr, outCount *uint32) int32
	finalizeGraphs    func(graphs uintptr, count uint32, profile uintptr) int32
	executeGraphs     func(graphs uintptr, count uint32, inputList, outputDir uintptr, inputType, outputType uint32, profile uintptr) int32
	freeGraphsInfo    func(graphs *uintptr, count uint32) int32
	freeContext       func(context, profile uintptr) int32
	freeDevice        func(device uintptr) int32
	freeProfile       func(profile uintptr) int32
	deinitialize      func(backend uintptr) int32
	errorMessage      func(status int32) uintptr
}

// NewNativeBackend binds every entry point of table. The table must come
// from a successful Load whose Library is still open.
func NewNativeBackend(table *FunctionTable) (Backend, error) {
	if table == nil {
		return nil, fmt.Errorf("function table is nil")
	}
	for _, b := range append(append([]symbolBinding{}, backendSymbols...), modelSymbols...) {
		if *b.slot(table) == 0 {
			return nil, fmt.Errorf("function table is missing %s", b.name)
		}
	}

	nb := &nativeBackend{}
	purego.RegisterFunc(&nb.initialize, table.Initialize)
	purego.RegisterFunc(&nb.isDeviceSupported, table.IsDeviceSupported)
	purego.RegisterFunc(&nb.createDevice, table.CreateDevice)
	purego.RegisterFunc(&nb.createProfile, table.CreateProfile)
	purego.RegisterFunc(&nb.createContext, table.CreateContext)
	purego.RegisterFunc(&nb.composeGraphs, table.ComposeGraphs)
	purego.RegisterFunc(&nb.finalizeGraphs, table.FinalizeGraphs)
	purego.RegisterFunc(&nb.executeGraphs, table.ExecuteGraphs)
	purego.RegisterFunc(&nb.freeGraphsInfo, table.FreeGraphsInfo)
	purego.RegisterFunc(&nb.freeContext, table.FreeContext)
	purego.RegisterFunc(&nb.freeDevice, table.FreeDevice)
	purego.RegisterFunc(&nb.freeProfile, table.FreeProfile)
	purego.RegisterFunc(&nb.deinitialize, table.Deinitialize)
	if table.GetErrorMessage != 0 {
		purego.RegisterFunc(&nb.errorMessage, table.GetErrorMessage)
	}
	return nb, nil
}

func (nb *nativeBackend) check(entry string, status int32) error {
	if status == StatusSuccess {
		return nil
	}
	err := &statusError{entry: entry, status: status}
	if nb.errorMessage != nil {
		err.message = cStringToGo(nb.errorMessage(status))
	}
	return err
}

func (nb *nativeBackend) Initialize(level LogLevel) (Handle, error) {
	var out uintptr
	status := nb.initialize(uint32(level), backendLogCallback(), &out)
	if err := nb.check("QnnBackend_initialize", status); err != nil {
		return 0, err
	}
	return Handle(out), nil
}

func (nb *nativeBackend) DeviceSupported(backend Handle) (bool, error) {
	switch status := nb.isDeviceSupported(uintptr(backend)); status {
	case StatusSuccess:
		return true, nil
	case StatusNotSupported:
		return false, nil
	default:
		return false, nb.check("QnnBackend_isDeviceSupported", status)
	}
}

func (nb *nativeBackend) CreateDevice(backend Handle) (Handle, error) {
	var out uintptr
	if err := nb.check("QnnBackend_createDevice", nb.createDevice(uintptr(backend), &out)); err != nil {
		return 0, err
	}
	return Handle(out), nil
}

func (nb *nativeBackend) CreateProfile(backend Handle, level ProfilingLevel) (Handle, error) {
	var out uintptr
	if err := nb.check("QnnBackend_createProfile", nb.createProfile(uintptr(backend), uint32(level), &out)); err != nil {
		return 0, err
	}
	return Handle(out), nil
}

func (nb *nativeBackend) CreateContext(backend, device Handle) (Handle, error) {
	var out uintptr
	if err := nb.check("QnnBackend_createContext", nb.createContext(uintptr(backend), uintptr(device), &out)); err != nil {
		return 0, err
	}
	return Handle(out), nil
}

func (nb *nativeBackend) ComposeGraphs(backend, context Handle, debug bool) (GraphSet, error) {
	var info uintptr
	var count uint32
	var debugFlag uint32
	if debug {
		debugFlag = 1
	}
	status := nb.composeGraphs(uintptr(backend), uintptr(context), debugFlag, &info, &count)
	if err := nb.check("QnnModel_composeGraphs", status); err != nil {
		return GraphSet{}, err
	}
	return GraphSet{Info: info, Count: count}, nil
}

func (nb *nativeBackend) FinalizeGraphs(graphs GraphSet, profile Handle) error {
	return nb.check("QnnBackend_finalizeGraphs", nb.finalizeGraphs(graphs.Info, graphs.Count, uintptr(profile)))
}

func (nb *nativeBackend) ExecuteGraphs(graphs GraphSet, req ExecuteRequest, profile Handle) error {
	inputBytes, inputPtr := goToCString(req.InputManifest)
	outputBytes, outputPtr := goToCString(req.OutputDir)
	status := nb.executeGraphs(graphs.Info, graphs.Count, inputPtr, outputPtr, uint32(req.Input), uint32(req.Output), uintptr(profile))
	runtime.KeepAlive(inputBytes)
	runtime.KeepAlive(outputBytes)
	return nb.check("QnnBackend_executeGraphs", status)
}

func (nb *nativeBackend) FreeGraphs(graphs GraphSet) error {
	info := graphs.Info
	return nb.check("QnnModel_freeGraphsInfo", nb.freeGraphsInfo(&info, graphs.Count))
}

func (nb *nativeBackend) FreeContext(context, profile Handle) error {
	return nb.check("QnnBackend_freeContext", nb.freeContext(uintptr(context), uintptr(profile)))
}

func (nb *nativeBackend) FreeDevice(device Handle) error {
	return nb.check("QnnBackend_freeDevice", nb.freeDevice(uintptr(device)))
}

func (nb *nativeBackend) FreeProfile(profile Handle) error {
	return nb.check("QnnBackend_freeProfile", nb.freeProfile(uintptr(profile)))
}

func (nb *nativeBackend) Deinitialize(backend Handle) error {
	return nb.check("QnnBackend_deinitialize", nb.deinitialize(uintptr(backend)))
}

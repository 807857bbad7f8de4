package qnn

// FunctionTable holds the resolved entry points of a backend and its model.
// It never outlives the Library it was resolved from.
type FunctionTable struct {
	Initialize        uintptr
	IsDeviceSupported uintptr
	CreateDevice      uintptr
	CreateProfile     uintptr
	CreateContext     uintptr
	FinalizeGraphs    uintptr
	ExecuteGraphs     uintptr
	FreeContext       uintptr
	FreeDevice        uintptr
	FreeProfile       uintptr
	Deinitialize      uintptr

	// Resolved from the model library, or from the backend when the model
	// is embedded.
	ComposeGraphs  uintptr
	FreeGraphsInfo uintptr

	// Optional; zero when the backend does not export it.
	GetErrorMessage uintptr
}

type symbolBinding struct {
	name string
	slot func(*FunctionTable) *uintptr
}

var backendSymbols = []symbolBinding{
	{"QnnBackend_initialize", func(t *FunctionTable) *uintptr { return &t.Initialize }},
	{"QnnBackend_isDeviceSupported", func(t *FunctionTable) *uintptr { return &t.IsDeviceSupported }},
	{"QnnBackend_createDevice", func(t *FunctionTable) *uintptr { return &t.CreateDevice }},
	{"QnnBackend_createProfile", func(t *FunctionTable) *uintptr { return &t.CreateProfile }},
	{"QnnBackend_createContext", func(t *FunctionTable) *uintptr { return &t.CreateContext }},
	{"QnnBackend_finalizeGraphs", func(t *FunctionTable) *uintptr { return &t.FinalizeGraphs }},
	{"QnnBackend_executeGraphs", func(t *FunctionTable) *uintptr { return &t.ExecuteGraphs }},
	{"QnnBackend_freeContext", func(t *FunctionTable) *uintptr { return &t.FreeContext }},
	{"QnnBackend_freeDevice", func(t *FunctionTable) *uintptr { return &t.FreeDevice }},
	{"QnnBackend_freeProfile", func(t *FunctionTable) *uintptr { return &t.FreeProfile }},
	{"QnnBackend_deinitialize", func(t *FunctionTable) *uintptr { return &t.Deinitialize }},
}

var modelSymbols = []symbolBinding{
	{"QnnModel_composeGraphs", func(t *FunctionTable) *uintptr { return &t.ComposeGraphs }},
	{"QnnModel_freeGraphsInfo", func(t *FunctionTable) *uintptr { return &t.FreeGraphsInfo }},
}

var optionalBackendSymbols = []symbolBinding{
	{"QnnBackend_getErrorMessage", func(t *FunctionTable) *uintptr { return &t.GetErrorMessage }},
}

// RequiredSymbols lists every entry point Load must resolve.
func RequiredSymbols() []string {
	names := make([]string, 0, len(backendSymbols)+len(modelSymbols))
	for _, b := range backendSymbols {
		names = append(names, b.name)
	}
	for _, b := range modelSymbols {
		names = append(names, b.name)
	}
	return names
}

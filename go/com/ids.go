package com

var (
	IID_IUnknown            = MustParseGUID("{00000000-0000-0000-C000-000000000046}")
	IID_IClassFactory       = MustParseGUID("{00000001-0000-0000-C000-000000000046}")
	IID_IMalloc             = MustParseGUID("{00000002-0000-0000-C000-000000000046}")
	IID_IDispatch           = MustParseGUID("{00020400-0000-0000-C000-000000000046}")
	IID_IWbemLocator        = MustParseGUID("{DC12A687-737F-11CF-884D-00AA004B2E24}")
	IID_IWbemServices       = MustParseGUID("{9556DC99-828C-11CF-A37E-00AA003240C7}")
	IID_IWbemContext        = MustParseGUID("{44ACA674-E8FC-11D0-A07C-00C04FB68820}")
	IID_IWinHttpRequest     = MustParseGUID("{016FE2EC-B2C8-45F8-B23B-39E53A75396B}")
	IID_ITaskService        = MustParseGUID("{2FABA4C7-4DA9-4013-9697-20CC3FD40F85}")
	IID_ITaskFolder         = MustParseGUID("{8CFAC062-A080-4C15-9A88-AA7C2AF80DFC}")
	IID_ITaskDefinition     = MustParseGUID("{F5BC8FC5-536D-4F77-B852-FBC1356FDEB6}")
	IID_IRegisteredTask     = MustParseGUID("{9C86F320-DEE3-4DD1-B972-A303F26B061E}")
	IID_IMMDeviceEnumerator = MustParseGUID("{A95664D2-9614-4F35-A746-DE8DB63617E6}")

	CLSID_WbemLocator         = MustParseGUID("{4590F811-1D3A-11D0-891F-00AA004B2E24}")
	CLSID_WbemContext         = MustParseGUID("{674B6698-EE92-11D0-AD71-00C04FD8FDFF}")
	CLSID_WinHttpRequest      = MustParseGUID("{2087C2F4-2CEF-4953-A8AB-34A51C4DAEEB}")
	CLSID_TaskScheduler       = MustParseGUID("{0F87369F-A4E5-4CFC-BD3E-73E6154572DD}")
	CLSID_MMDeviceEnumerator  = MustParseGUID("{BCDE0395-E52F-467C-8E3D-C4579291692E}")
)

// Interfaces maps an IID to the catalog interface it names.
var Interfaces = map[GUID]string{
	IID_IUnknown:            "IUnknown",
	IID_IClassFactory:       "IClassFactory",
	IID_IMalloc:             "IMalloc",
	IID_IDispatch:           "IDispatch",
	IID_IWbemLocator:        "IWbemLocator",
	IID_IWbemServices:       "IWbemServices",
	IID_IWbemContext:        "IWbemContext",
	IID_IWinHttpRequest:     "IWinHttpRequest",
	IID_ITaskService:        "ITaskService",
	IID_ITaskFolder:         "ITaskFolder",
	IID_ITaskDefinition:     "ITaskDefinition",
	IID_IRegisteredTask:     "IRegisteredTask",
	IID_IMMDeviceEnumerator: "IMMDeviceEnumerator",
}

// Classes maps a CLSID to the interface its objects implement.
var Classes = map[GUID]string{
	CLSID_WbemLocator:        "IWbemLocator",
	CLSID_WbemContext:        "IWbemContext",
	CLSID_WinHttpRequest:     "IWinHttpRequest",
	CLSID_TaskScheduler:      "ITaskService",
	CLSID_MMDeviceEnumerator: "IMMDeviceEnumerator",
}

// ResolveClass picks the interface to build for CoCreateInstance(clsid, iid).
// A known, specific iid wins; IUnknown and IDispatch requests get the class's interface.
func ResolveClass(clsid, iid GUID) (string, bool) {
	if name, ok := Interfaces[iid]; ok && iid != IID_IUnknown && iid != IID_IDispatch {
		return name, true
	}
	if name, ok := Classes[clsid]; ok {
		return name, true
	}
	name, ok := Interfaces[iid]
	return name, ok
}

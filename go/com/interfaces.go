package com

// DefaultCatalog returns a catalog holding the built-in interfaces.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	c.MustDefine(builtin...)
	return c
}

func getPut(names ...string) []Item {
	ret := make([]Item, 0, len(names)*2)
	for _, name := range names {
		ret = append(ret, Method("get_"+name), Method("put_"+name))
	}
	return ret
}

func methods(names ...string) []Item {
	ret := make([]Item, len(names))
	for i, name := range names {
		ret[i] = Method(name)
	}
	return ret
}

func dispatch(items ...[]Item) []Item {
	ret := []Item{Embed("IDispatch")}
	for _, i := range items {
		ret = append(ret, i...)
	}
	return ret
}

func unknown(names ...string) []Item {
	return append([]Item{Embed("IUnknown")}, methods(names...)...)
}

var builtin = []Def{
	Define("IUnknown", methods("QueryInterface", "AddRef", "Release")...),
	Define("IDispatch", unknown("GetTypeInfoCount", "GetTypeInfo", "GetIDsOfNames", "Invoke")...),
	Define("IClassFactory", unknown("CreateInstance", "LockServer")...),
	Define("IMalloc", unknown("Alloc", "Realloc", "Free", "GetSize", "DidAlloc", "HeapMinimize")...),

	Define("IWbemLocator", unknown("ConnectServer")...),
	Define("IWbemServices", unknown(
		"OpenNamespace", "CancelAsyncCall", "QueryObjectSink",
		"GetObject", "GetObjectAsync",
		"PutClass", "PutClassAsync", "DeleteClass", "DeleteClassAsync",
		"CreateClassEnum", "CreateClassEnumAsync",
		"PutInstance", "PutInstanceAsync", "DeleteInstance", "DeleteInstanceAsync",
		"CreateInstanceEnum", "CreateInstanceEnumAsync",
		"ExecQuery", "ExecQueryAsync",
		"ExecNotificationQuery", "ExecNotificationQueryAsync",
		"ExecMethod", "ExecMethodAsync",
	)...),
	Define("IWbemContext", unknown(
		"Clone", "GetNames", "BeginEnumeration", "Next", "EndEnumeration",
		"SetValue", "GetValue", "DeleteValue", "DeleteAll",
	)...),

	Define("IWinHttpRequest", dispatch(
		methods("SetProxy", "SetCredentials", "Open", "SetRequestHeader",
			"GetResponseHeader", "GetAllResponseHeaders", "Send",
			"get_Status", "get_StatusText", "get_ResponseText", "get_ResponseBody",
			"get_ResponseStream"),
		getPut("Option"),
		methods("WaitForResponse", "Abort", "SetTimeouts", "SetClientCertificate", "SetAutoLogonPolicy"),
	)...),

	Define("ITaskService", dispatch(methods(
		"GetFolder", "GetRunningTasks", "NewTask", "Connect",
		"get_Connected", "get_TargetServer", "get_ConnectedUser", "get_ConnectedDomain",
		"get_HighestVersion",
	))...),
	Define("ITaskFolder", dispatch(methods(
		"get_Name", "get_Path", "GetFolder", "GetFolders", "CreateFolder", "DeleteFolder",
		"GetTask", "GetTasks", "DeleteTask", "RegisterTask", "RegisterTaskDefinition",
		"GetSecurityDescriptor", "SetSecurityDescriptor",
	))...),
	Define("ITaskDefinition", dispatch(getPut(
		"RegistrationInfo", "Triggers", "Settings", "Data", "Principal", "Actions", "XmlText",
	))...),
	Define("IRegisteredTask", dispatch(
		methods("get_Name", "get_Path", "get_State"),
		getPut("Enabled"),
		methods("Run", "RunEx", "GetInstances", "get_LastRunTime", "get_LastTaskResult",
			"get_NumberOfMissedRuns", "get_NextRunTime", "get_Definition", "get_Xml",
			"GetSecurityDescriptor", "SetSecurityDescriptor", "Stop", "GetRunTimes"),
	)...),
	Define("IRegistrationInfo", dispatch(getPut(
		"Description", "Author", "Version", "Date", "Documentation", "XmlText", "URI",
		"SecurityDescriptor", "Source",
	))...),
	Define("IPrincipal", dispatch(getPut(
		"Id", "DisplayName", "UserId", "LogonType", "GroupId", "RunLevel",
	))...),
	Define("IActionCollection", dispatch(
		methods("get_Count", "get_Item", "get__NewEnum"),
		getPut("XmlText"),
		methods("Create", "Remove", "Clear"),
		getPut("Context"),
	)...),
	Define("ITriggerCollection", dispatch(methods(
		"get_Count", "get_Item", "get__NewEnum", "Create", "Remove", "Clear",
	))...),
	Define("ITaskSettings", dispatch(getPut(
		"AllowDemandStart", "RestartInterval", "RestartCount", "MultipleInstances",
		"StopIfGoingOnBatteries", "DisallowStartIfOnBatteries", "AllowHardTerminate",
		"StartWhenAvailable", "XmlText", "RunOnlyIfNetworkAvailable", "ExecutionTimeLimit",
		"Enabled", "DeleteExpiredTaskAfter", "Priority", "Compatibility", "Hidden",
		"IdleSettings", "RunOnlyIfIdle", "WakeToRun", "NetworkSettings",
	))...),
	Define("IAction", dispatch(getPut("Id"), methods("get_Type"))...),
	Define("IExecAction", append([]Item{Embed("IAction")}, getPut("Path", "Arguments", "WorkingDirectory")...)...),

	Define("IMMDeviceEnumerator", unknown(
		"EnumAudioEndpoints", "GetDefaultAudioEndpoint", "GetDevice",
		"RegisterEndpointNotificationCallback", "UnregisterEndpointNotificationCallback",
	)...),
}

package module

// Names of runtime library members that woven code refers to.
const (
	NotifyPropertyChangedInterface = "System.ComponentModel.INotifyPropertyChanged"
	PropertyChangedEventHandler    = "System.ComponentModel.PropertyChangedEventHandler"
	PropertyChangedEventArgs       = "System.ComponentModel.PropertyChangedEventArgs"
	CompilerGeneratedAttribute     = "System.Runtime.CompilerServices.CompilerGeneratedAttribute"
	MathType                       = "System.Math"

	// InvokeMethod raises every handler of a delegate chain.
	InvokeMethod = "Invoke"
)

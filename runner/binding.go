package runner

import (
	"fmt"
	"reflect"

	"github.com/notargets/DGView/runner/builder"
	"github.com/notargets/DGView/space"
	"github.com/notargets/DGView/view"
	"github.com/notargets/gocca"
	"go.uber.org/zap"
)

// ActionFlags represents the memory operations to perform for a parameter
type ActionFlags int

const (
	// No action
	NoAction ActionFlags = 0
	// Copy from host mirror to device before kernel execution
	CopyTo ActionFlags = 1 << iota
	// Copy from device to host mirror after kernel execution
	CopyBack
	// Bidirectional copy (CopyTo | CopyBack)
	Copy = CopyTo | CopyBack
)

// DeviceBinding names a device view, or a scalar, inside kernel source
type DeviceBinding struct {
	Name string

	// View bindings
	Spec   builder.ViewSpec
	Memory *gocca.OCCAMemory

	// Scalar bindings
	IsScalar   bool
	ScalarType builder.DataType

	copyTo   func() error
	copyBack func() error
	release  func()
}

// HasMirror reports whether the binding carries a host mirror to copy through
func (b *DeviceBinding) HasMirror() bool { return b.copyTo != nil }

// ParameterUsage represents how a binding is used in a specific kernel or copy operation
type ParameterUsage struct {
	Binding *DeviceBinding
	Actions ActionFlags
	Const   bool
}

// HasAction checks if a specific action is set
func (pu *ParameterUsage) HasAction(action ActionFlags) bool {
	return pu.Actions&action != 0
}

// BindView binds a device view under name. The runner holds a shared
// reference to the allocation until Free.
func BindView[T view.Scalar](kr *Runner, name string, dev *view.View[T, space.Device]) error {
	return bindView[T](kr, name, dev, nil)
}

// BindMirrored binds a device view together with a host view of the same
// extents, enabling CopyTo and CopyBack actions for the parameter.
func BindMirrored[T view.Scalar](kr *Runner, name string, dev *view.View[T, space.Device],
	host *view.View[T, space.Host]) error {
	if host == nil || !host.IsAllocated() {
		return fmt.Errorf("%w: host mirror of %s is not allocated", ErrNotBindable, name)
	}
	return bindView[T](kr, name, dev, host)
}

func bindView[T view.Scalar](kr *Runner, name string, dev *view.View[T, space.Device],
	host *view.View[T, space.Host]) error {
	if dev == nil || !dev.IsAllocated() {
		return fmt.Errorf("%w: %s is not allocated", ErrNotBindable, name)
	}
	buf, ok := dev.Buffer().(*space.DeviceBuffer)
	if !ok {
		return fmt.Errorf("%w: %s is not backed by device memory", ErrNotBindable, name)
	}
	dt := DataTypeOf[T]()
	if dt == 0 {
		return fmt.Errorf("%w: %s has unsupported element type %T", ErrNotBindable, name, *new(T))
	}
	spec := builder.ViewSpec{
		Name:     name,
		DataType: dt,
		Origin:   dev.Origin(),
		Extents:  dev.Extents(),
		Strides:  dev.Strides(),
		ReadOnly: dev.Traits().ReadOnly,
	}
	if err := kr.AddView(spec); err != nil {
		return err
	}

	devRef := dev.Copy()
	binding := &DeviceBinding{
		Name:    name,
		Spec:    spec,
		Memory:  buf.Memory(),
		release: devRef.Release,
	}
	if host != nil {
		hostRef := host.Copy()
		binding.copyTo = func() error { return view.DeepCopy(devRef, hostRef) }
		binding.copyBack = func() error { return view.DeepCopy(hostRef, devRef) }
		binding.release = func() {
			devRef.Release()
			hostRef.Release()
		}
	}
	kr.Bindings[name] = binding

	Logger().Debug("view bound",
		zap.String("name", name),
		zap.String("label", dev.Label()),
		zap.Ints("extents", spec.Extents),
		zap.Ints("strides", spec.Strides),
		zap.Int("origin", spec.Origin),
		zap.Bool("mirrored", host != nil))
	return nil
}

// BindScalar declares a by-value kernel argument supplied at execution
func (kr *Runner) BindScalar(name string, dt builder.DataType) error {
	if err := kr.AddScalar(builder.ScalarSpec{Name: name, DataType: dt}); err != nil {
		return err
	}
	kr.Bindings[name] = &DeviceBinding{
		Name:       name,
		IsScalar:   true,
		ScalarType: dt,
		release:    func() {},
	}
	return nil
}

// GetBinding returns the binding for a name, or nil
func (kr *Runner) GetBinding(name string) *DeviceBinding {
	return kr.Bindings[name]
}

// HasBinding checks if a binding exists
func (kr *Runner) HasBinding(name string) bool {
	_, ok := kr.Bindings[name]
	return ok
}

// DataTypeOf maps a view element type to the kernel data type, or 0 when
// kernels have no matching C type.
func DataTypeOf[T view.Scalar]() builder.DataType {
	var zero T
	return getDataTypeFromReflectKind(reflect.TypeOf(zero).Kind())
}

func getDataTypeFromReflectKind(kind reflect.Kind) builder.DataType {
	switch kind {
	case reflect.Float32:
		return builder.Float32
	case reflect.Float64:
		return builder.Float64
	case reflect.Int32:
		return builder.INT32
	case reflect.Int64, reflect.Int:
		return builder.INT64
	default:
		return 0
	}
}

package runner

import (
	"errors"
	"fmt"

	"github.com/notargets/DGView/runner/builder"
	"github.com/notargets/gocca"
	"go.uber.org/zap"
)

var (
	ErrUnknownParameter = errors.New("unknown kernel parameter")
	ErrNotConfigured    = errors.New("kernel not configured")
	ErrNotBuilt         = errors.New("kernel not built")
	ErrArguments        = errors.New("kernel argument mismatch")
	ErrNotBindable      = errors.New("view cannot be bound")
)

// Runner compiles OCCA kernels against a set of bound device views and
// launches them, moving data to and from host mirrors around each launch.
type Runner struct {
	*builder.Builder
	Device        *gocca.OCCADevice
	Kernels       map[string]*gocca.OCCAKernel
	Bindings      map[string]*DeviceBinding
	KernelConfigs map[string]*KernelConfig
}

// NewRunner creates a new Runner instance
func NewRunner(device *gocca.OCCADevice, cfg builder.Config) *Runner {
	if device == nil {
		panic("NewRunner requires a device")
	}
	return &Runner{
		Builder:       builder.NewBuilder(cfg),
		Device:        device,
		Kernels:       make(map[string]*gocca.OCCAKernel),
		Bindings:      make(map[string]*DeviceBinding),
		KernelConfigs: make(map[string]*KernelConfig),
	}
}

// BuildKernel compiles and registers a kernel. The source is prefixed with
// the type definitions and accessor macros of every bound view.
func (kr *Runner) BuildKernel(kernelSource, kernelName string) (*gocca.OCCAKernel, error) {
	kr.GeneratePreamble()

	// Combine preamble with kernel source
	fullSource := kr.KernelPreamble + "\n" + kernelSource

	var kernel *gocca.OCCAKernel
	var err error

	if kr.Device.Mode() == "OpenMP" {
		// Workaround for OCCA bug: OpenMP doesn't get default -O3 flag
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = kr.Device.BuildKernelFromString(fullSource, kernelName, props)
	} else {
		kernel, err = kr.Device.BuildKernelFromString(fullSource, kernelName, nil)
	}

	if err != nil {
		Logger().Error("kernel build failed",
			zap.String("kernel", kernelName), zap.String("mode", kr.Device.Mode()), zap.Error(err))
		return nil, fmt.Errorf("failed to build kernel %s: %w", kernelName, err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("kernel build returned nil for %s", kernelName)
	}

	if old, ok := kr.Kernels[kernelName]; ok {
		old.Free()
	}
	kr.Kernels[kernelName] = kernel
	Logger().Debug("kernel built",
		zap.String("kernel", kernelName), zap.String("mode", kr.Device.Mode()))
	return kernel, nil
}

// Free releases compiled kernels and every bound view. Views stay allocated
// while the caller holds its own references.
func (kr *Runner) Free() {
	for _, kernel := range kr.Kernels {
		kernel.Free()
	}
	kr.Kernels = make(map[string]*gocca.OCCAKernel)

	for _, binding := range kr.Bindings {
		binding.release()
	}
	kr.Bindings = make(map[string]*DeviceBinding)
	kr.KernelConfigs = make(map[string]*KernelConfig)
}

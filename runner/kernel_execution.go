package runner

import (
	"fmt"

	"github.com/notargets/DGView/runner/builder"
	"go.uber.org/zap"
)

// ExecuteKernel executes a kernel using its configuration. Scalar values
// are given in the order the scalars were configured.
func (kr *Runner) ExecuteKernel(name string, scalarValues ...interface{}) error {
	config, exists := kr.KernelConfigs[name]
	if !exists {
		return fmt.Errorf("%w: %s - use ConfigureKernel first", ErrNotConfigured, name)
	}
	kernel, exists := kr.Kernels[name]
	if !exists {
		return fmt.Errorf("%w: %s - use BuildKernel first", ErrNotBuilt, name)
	}

	args, err := kr.buildKernelArgumentsFromConfig(config, scalarValues)
	if err != nil {
		return fmt.Errorf("failed to build arguments: %w", err)
	}

	// Perform pre-kernel memory operations (CopyTo only)
	if err := kr.executeCopyActions(config.Parameters, CopyTo); err != nil {
		return fmt.Errorf("pre-kernel copy failed: %w", err)
	}

	if err := kernel.RunWithArgs(args...); err != nil {
		Logger().Error("kernel execution failed", zap.String("kernel", name), zap.Error(err))
		return fmt.Errorf("kernel execution failed: %w", err)
	}
	kr.Device.Finish()

	// Perform post-kernel memory operations (CopyBack only)
	if err := kr.executeCopyActions(config.Parameters, CopyBack); err != nil {
		return fmt.Errorf("post-kernel copy failed: %w", err)
	}
	return nil
}

func (kr *Runner) buildKernelArgumentsFromConfig(config *KernelConfig, scalarValues []interface{}) ([]interface{}, error) {
	args := make([]interface{}, 0, len(config.Parameters))
	scalarIdx := 0
	for _, pu := range config.Parameters {
		if !pu.Binding.IsScalar {
			args = append(args, pu.Binding.Memory)
			continue
		}
		if scalarIdx >= len(scalarValues) {
			return nil, fmt.Errorf("%w: scalar %s not provided", ErrArguments, pu.Binding.Name)
		}
		value, err := convertScalar(scalarValues[scalarIdx], pu.Binding.ScalarType)
		if err != nil {
			return nil, fmt.Errorf("scalar %s: %w", pu.Binding.Name, err)
		}
		args = append(args, value)
		scalarIdx++
	}
	if scalarIdx != len(scalarValues) {
		return nil, fmt.Errorf("%w: %d scalars given, kernel %s takes %d",
			ErrArguments, len(scalarValues), config.Name, scalarIdx)
	}
	return args, nil
}

// convertScalar casts a Go number to the Go type matching dt
func convertScalar(v interface{}, dt builder.DataType) (interface{}, error) {
	var f float64
	var i int64
	isInt := true
	switch x := v.(type) {
	case float32:
		f, isInt = float64(x), false
	case float64:
		f, isInt = x, false
	case int:
		i = int64(x)
	case int32:
		i = int64(x)
	case int64:
		i = x
	default:
		return nil, fmt.Errorf("%w: unsupported scalar type %T", ErrArguments, v)
	}
	if isInt {
		f = float64(i)
	} else if dt == builder.INT32 || dt == builder.INT64 {
		return nil, fmt.Errorf("%w: %T value for %s parameter", ErrArguments, v, builder.TypeName(dt))
	}

	switch dt {
	case builder.Float32:
		return float32(f), nil
	case builder.Float64:
		return f, nil
	case builder.INT32:
		return int32(i), nil
	case builder.INT64:
		return i, nil
	default:
		return nil, fmt.Errorf("%w: unknown scalar type %d", ErrArguments, dt)
	}
}

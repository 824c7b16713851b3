package runner

import (
	"fmt"

	"github.com/notargets/DGView/runner/builder"
)

// ParamConfig selects a binding for a kernel or copy configuration
type ParamConfig struct {
	name    string
	actions ActionFlags
	input   bool
}

// KernelConfig holds the parameters of a kernel in argument order
type KernelConfig struct {
	Name       string
	Parameters []ParameterUsage
	Signature  string
}

// CopyConfig holds a standalone set of copy actions
type CopyConfig struct {
	Parameters []ParameterUsage
}

// GetParameter returns the usage of a named parameter, or nil
func (kc *KernelConfig) GetParameter(name string) *ParameterUsage {
	for i := range kc.Parameters {
		if kc.Parameters[i].Binding.Name == name {
			return &kc.Parameters[i]
		}
	}
	return nil
}

// Param starts a parameter configuration for a bound name
func (kr *Runner) Param(name string) *ParamConfig {
	return &ParamConfig{name: name}
}

// CopyTo copies the host mirror to the device before execution
func (pc *ParamConfig) CopyTo() *ParamConfig {
	pc.actions |= CopyTo
	return pc
}

// CopyBack copies the device view to the host mirror after execution
func (pc *ParamConfig) CopyBack() *ParamConfig {
	pc.actions |= CopyBack
	return pc
}

// Copy performs both CopyTo and CopyBack
func (pc *ParamConfig) Copy() *ParamConfig {
	pc.actions |= Copy
	return pc
}

// NoCopy clears all copy actions
func (pc *ParamConfig) NoCopy() *ParamConfig {
	pc.actions = NoAction
	return pc
}

// Input declares the view const in the kernel signature
func (pc *ParamConfig) Input() *ParamConfig {
	pc.input = true
	return pc
}

func (kr *Runner) resolve(params []*ParamConfig) ([]ParameterUsage, error) {
	usages := make([]ParameterUsage, 0, len(params))
	seen := make(map[string]bool, len(params))
	for _, pc := range params {
		binding := kr.GetBinding(pc.name)
		if binding == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, pc.name)
		}
		if seen[pc.name] {
			return nil, fmt.Errorf("%w: %s listed twice", ErrArguments, pc.name)
		}
		seen[pc.name] = true
		if pc.actions != NoAction && (binding.IsScalar || !binding.HasMirror()) {
			return nil, fmt.Errorf("%w: %s has no host mirror to copy", ErrArguments, pc.name)
		}
		usages = append(usages, ParameterUsage{
			Binding: binding,
			Actions: pc.actions,
			Const:   pc.input || binding.Spec.ReadOnly,
		})
	}
	return usages, nil
}

// ConfigureKernel fixes the arguments of a kernel. Views are passed first
// in the order given, followed by scalars in the order given.
func (kr *Runner) ConfigureKernel(name string, params ...*ParamConfig) (*KernelConfig, error) {
	usages, err := kr.resolve(params)
	if err != nil {
		return nil, fmt.Errorf("configure %s: %w", name, err)
	}
	views, scalars := splitUsages(usages)

	specs := make([]builder.ViewSpec, len(views))
	for i, pu := range views {
		specs[i] = pu.Binding.Spec
		specs[i].ReadOnly = pu.Const
	}
	scalarSpecs := make([]builder.ScalarSpec, len(scalars))
	for i, pu := range scalars {
		scalarSpecs[i] = builder.ScalarSpec{Name: pu.Binding.Name, DataType: pu.Binding.ScalarType}
	}

	config := &KernelConfig{
		Name:       name,
		Parameters: append(views, scalars...),
		Signature:  builder.GenerateKernelSignature(specs, scalarSpecs),
	}
	kr.KernelConfigs[name] = config
	return config, nil
}

// ConfigureCopy builds a set of copy actions to run with ExecuteCopy
func (kr *Runner) ConfigureCopy(params ...*ParamConfig) (*CopyConfig, error) {
	usages, err := kr.resolve(params)
	if err != nil {
		return nil, err
	}
	return &CopyConfig{Parameters: usages}, nil
}

// GetKernelSignatureForConfig returns the argument list of a configured kernel
func (kr *Runner) GetKernelSignatureForConfig(kernelName string) (string, error) {
	config, exists := kr.KernelConfigs[kernelName]
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrNotConfigured, kernelName)
	}
	return config.Signature, nil
}

func splitUsages(usages []ParameterUsage) (views, scalars []ParameterUsage) {
	for _, pu := range usages {
		if pu.Binding.IsScalar {
			scalars = append(scalars, pu)
		} else {
			views = append(views, pu)
		}
	}
	return views, scalars
}

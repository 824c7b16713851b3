package runner

import (
	"fmt"

	"go.uber.org/zap"
)

// executeCopyActions runs the copies in usages that carry action
func (kr *Runner) executeCopyActions(usages []ParameterUsage, action ActionFlags) error {
	for _, pu := range usages {
		if !pu.HasAction(action) {
			continue
		}
		var err error
		switch action {
		case CopyTo:
			err = kr.copyToDeviceFromBinding(pu.Binding)
		case CopyBack:
			err = kr.copyFromDeviceFromBinding(pu.Binding)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (kr *Runner) copyToDeviceFromBinding(binding *DeviceBinding) error {
	if !binding.HasMirror() {
		return fmt.Errorf("%w: %s has no host mirror", ErrArguments, binding.Name)
	}
	if err := binding.copyTo(); err != nil {
		return fmt.Errorf("copy %s to device: %w", binding.Name, err)
	}
	Logger().Debug("copied to device", zap.String("name", binding.Name))
	return nil
}

func (kr *Runner) copyFromDeviceFromBinding(binding *DeviceBinding) error {
	if !binding.HasMirror() {
		return fmt.Errorf("%w: %s has no host mirror", ErrArguments, binding.Name)
	}
	if err := binding.copyBack(); err != nil {
		return fmt.Errorf("copy %s from device: %w", binding.Name, err)
	}
	Logger().Debug("copied from device", zap.String("name", binding.Name))
	return nil
}

// ExecuteCopy runs a copy configuration, all CopyTo actions first
func (kr *Runner) ExecuteCopy(config *CopyConfig) error {
	if err := kr.executeCopyActions(config.Parameters, CopyTo); err != nil {
		return err
	}
	return kr.executeCopyActions(config.Parameters, CopyBack)
}

// CopyToDevice copies a mirrored binding's host view to its device view
func (kr *Runner) CopyToDevice(name string) error {
	binding := kr.GetBinding(name)
	if binding == nil || binding.IsScalar {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	return kr.copyToDeviceFromBinding(binding)
}

// CopyFromDevice copies a mirrored binding's device view to its host view
func (kr *Runner) CopyFromDevice(name string) error {
	binding := kr.GetBinding(name)
	if binding == nil || binding.IsScalar {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	return kr.copyFromDeviceFromBinding(binding)
}

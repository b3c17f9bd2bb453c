package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the struct tags of c plus the rules that can't be
// expressed in tags
func Validate(c *Config) error {
	if err := validate.Struct(c); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
		}

		return err
	}

	if c.Upload.ProxyMaxSize > c.Upload.MaxSize {
		return errors.New("upload.proxy_max_size can't be bigger than upload.max_size")
	}

	return nil
}

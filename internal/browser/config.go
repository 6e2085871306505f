package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// GetConfig reads a field of the system configuration page. A field that
// uses the system value reports ok=false. Select fields report the label of
// the selected option ("Yes", "No").
func (s *Shop) GetConfig(ctx context.Context, path string) (string, bool, error) {
	page, err := s.openConfigField(ctx, path)
	if err != nil {
		return "", false, err
	}

	inherit := page.Locator(InheritSelector(path))
	if n, _ := inherit.Count(); n > 0 {
		checked, err := inherit.IsChecked()
		if err != nil {
			return "", false, fmt.Errorf("get config %s: %w", path, err)
		}
		if checked {
			return "", false, nil
		}
	}

	field := page.Locator(FieldSelector(path))
	isSelect, err := isSelectField(field)
	if err != nil {
		return "", false, fmt.Errorf("get config %s: %w", path, err)
	}
	var value string
	if isSelect {
		value, err = field.Locator("option:checked").TextContent()
	} else {
		value, err = field.InputValue()
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %s: %w", path, err)
	}
	return strings.TrimSpace(value), true, nil
}

// SetConfig unticks "Use system value", sets the field and saves the
// section. Select fields are set by option label.
func (s *Shop) SetConfig(ctx context.Context, path, value string) error {
	page, err := s.openConfigField(ctx, path)
	if err != nil {
		return err
	}

	inherit := page.Locator(InheritSelector(path))
	if n, _ := inherit.Count(); n > 0 {
		if err := inherit.SetChecked(false); err != nil {
			return fmt.Errorf("set config %s: inherit: %w", path, err)
		}
	}

	field := page.Locator(FieldSelector(path))
	isSelect, err := isSelectField(field)
	if err != nil {
		return fmt.Errorf("set config %s: %w", path, err)
	}
	if isSelect {
		_, err = field.SelectOption(playwright.SelectOptionValues{Labels: &[]string{value}})
	} else {
		err = field.Fill(value)
	}
	if err != nil {
		return fmt.Errorf("set config %s: %w", path, err)
	}

	return s.saveConfig(page, path)
}

// DeleteConfig ticks "Use system value" and saves the section.
func (s *Shop) DeleteConfig(ctx context.Context, path string) error {
	page, err := s.openConfigField(ctx, path)
	if err != nil {
		return err
	}

	inherit := page.Locator(InheritSelector(path))
	if n, _ := inherit.Count(); n == 0 {
		return fmt.Errorf("delete config %s: field has no system value", path)
	}
	if err := inherit.SetChecked(true); err != nil {
		return fmt.Errorf("delete config %s: %w", path, err)
	}
	return s.saveConfig(page, path)
}

// openConfigField opens the section page of path and expands its group.
func (s *Shop) openConfigField(ctx context.Context, path string) (playwright.Page, error) {
	if err := s.Login(ctx); err != nil {
		return nil, err
	}
	url, err := ConfigSectionURL(s.env, path)
	if err != nil {
		return nil, err
	}
	if err := s.session.Goto(url); err != nil {
		return nil, err
	}
	page := s.session.Page()

	field := page.Locator(FieldSelector(path))
	visible, err := field.IsVisible()
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if !visible {
		head := page.Locator(GroupHeadSelector(path))
		if err := head.Click(); err != nil {
			return nil, fmt.Errorf("config %s: expand group: %w", path, err)
		}
	}
	if err := field.WaitFor(); err != nil {
		return nil, fmt.Errorf("config %s: field not found: %w", path, err)
	}
	return page, nil
}

func (s *Shop) saveConfig(page playwright.Page, path string) error {
	if err := page.Locator(selConfigSave).Click(); err != nil {
		return fmt.Errorf("save config %s: %w", path, err)
	}
	if err := waitForMessage(page); err != nil {
		return fmt.Errorf("save config %s: %w", path, err)
	}
	s.logger.Debug("config saved", "path", path)
	return nil
}

func isSelectField(field playwright.Locator) (bool, error) {
	tag, err := field.Evaluate("el => el.tagName.toLowerCase()", nil)
	if err != nil {
		return false, err
	}
	return tag == "select", nil
}

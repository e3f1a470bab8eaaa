package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/internal/validation"
)

// Stager 接收表单输入的暂存目标，*onboarding.Autosaver 实现了该接口
type Stager interface {
	Stage(phase model.Phase, id model.FieldID, values ...string)
}

// PhaseForm 按阶段规则表生成的交互式表单，每个分组一页
type PhaseForm struct {
	phase     model.Phase
	table     validation.Table
	validator *validation.Validator
	stager    Stager

	text    map[model.FieldID]*string
	choices map[model.FieldID]*[]string

	form *huh.Form
}

// NewPhaseForm 创建表单，initial 为预填的值（通常是资料与草稿的合并）。stager 可以为 nil
func NewPhaseForm(phase model.Phase, initial model.FieldSet, v *validation.Validator, stager Stager) (*PhaseForm, error) {
	table, ok := validation.TableFor(phase)
	if !ok {
		return nil, fmt.Errorf("%s has no form", phase)
	}
	if v == nil {
		v = validation.New()
	}

	f := &PhaseForm{
		phase:     phase,
		table:     table,
		validator: v,
		stager:    stager,
		text:      make(map[model.FieldID]*string),
		choices:   make(map[model.FieldID]*[]string),
	}

	groups := make([]*huh.Group, 0, len(table.Sections))
	for _, section := range table.Sections {
		fields := make([]huh.Field, 0, len(section.Fields))
		for _, id := range section.Fields {
			fields = append(fields, f.field(id, table.Rules[id], initial))
		}
		groups = append(groups, huh.NewGroup(fields...).Title(sectionTitle(section.Name)))
	}
	f.form = huh.NewForm(groups...)
	return f, nil
}

func (f *PhaseForm) field(id model.FieldID, rule validation.Rule, initial model.FieldSet) huh.Field {
	title := rule.Label
	if rule.Required {
		title += " *"
	}

	switch {
	case id.IsList() && len(rule.Options) > 0:
		selected := initial.Items(id)
		f.choices[id] = &selected
		return huh.NewMultiSelect[string]().
			Key(string(id)).
			Title(title).
			Options(huh.NewOptions(rule.Options...)...).
			Value(&selected).
			Validate(func(items []string) error { return f.check(id, items...) })

	case id.IsList():
		value := strings.Join(initial.Items(id), ", ")
		f.text[id] = &value
		return huh.NewInput().
			Key(string(id)).
			Title(title).
			Description("Separate entries with commas").
			Value(&value).
			Validate(func(s string) error { return f.check(id, splitList(s)...) })

	case len(rule.Options) > 0:
		value := initial.Text(id)
		f.text[id] = &value
		return huh.NewSelect[string]().
			Key(string(id)).
			Title(title).
			Options(huh.NewOptions(rule.Options...)...).
			Value(&value).
			Validate(func(s string) error { return f.check(id, s) })

	case rule.MaxWords > 0:
		value := initial.Text(id)
		f.text[id] = &value
		return huh.NewText().
			Key(string(id)).
			Title(title).
			Description(fmt.Sprintf("Up to %d words", rule.MaxWords)).
			CharLimit(rule.MaxLen).
			Value(&value).
			Validate(func(s string) error { return f.check(id, s) })

	default:
		value := initial.Text(id)
		f.text[id] = &value
		return huh.NewInput().
			Key(string(id)).
			Title(title).
			Placeholder(placeholder(rule)).
			Value(&value).
			Validate(func(s string) error { return f.check(id, s) })
	}
}

func placeholder(rule validation.Rule) string {
	switch rule.Format {
	case validation.FormatEmail:
		return "name@example.com"
	case validation.FormatURL:
		return "https://"
	case validation.FormatPhone:
		return "+250 788 123 456"
	}
	if rule.YearWindow > 0 {
		return "YYYY"
	}
	return ""
}

// check 暂存输入并校验单个字段。空值留到提交时统一校验，允许先跳过
func (f *PhaseForm) check(id model.FieldID, values ...string) error {
	if f.stager != nil {
		f.stager.Stage(f.phase, id, values...)
	}

	fields := f.Values().Set(id, values...)
	if len(fields.Items(id)) == 0 {
		return nil
	}
	if res := f.validator.Validate(id, f.table.Rules[id], fields); !res.Valid {
		return errors.New(res.Message)
	}
	return nil
}

// Values 当前填写的值，已去掉空白字段
func (f *PhaseForm) Values() model.FieldSet {
	fields := make(model.FieldSet, len(f.text)+len(f.choices))
	for id, v := range f.text {
		if id.IsList() {
			fields[id] = splitList(*v)
		} else {
			fields[id] = []string{*v}
		}
	}
	for id, v := range f.choices {
		fields[id] = append([]string(nil), (*v)...)
	}
	return fields.Normalize()
}

// Run 运行表单直到提交或中断
func (f *PhaseForm) Run(ctx context.Context) error {
	return f.form.RunWithContext(ctx)
}

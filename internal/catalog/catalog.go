package catalog

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ShiftUnrecorded 筛选“未记录班次”时使用的名称
const ShiftUnrecorded = "Shift Tidak Tercatat"

// Catalog 主数据：机台、品种、缺陷类型、班次
type Catalog struct {
	Machines    []string `yaml:"machines" json:"machines"`
	Variants    []string `yaml:"variants" json:"variants"`
	DefectTypes []string `yaml:"defect_types" json:"defectTypes"`
	Shifts      []string `yaml:"shifts" json:"shifts"`
}

// Default 内置主数据
func Default() *Catalog {
	return &Catalog{
		Machines: []string{
			"Mesin A1", "Mesin A2", "Mesin A3", "Mesin A4", "Mesin A5",
			"Mesin A6", "Mesin A7", "Mesin A8", "Mesin A9", "Mesin B0",
			"Mesin B1", "Mesin B2", "Mesin B3", "Mesin B4", "Mesin B5",
		},
		Variants: []string{
			"Wow Sapagethi Carbonara",
			"Wow Spagethi Bolognese",
			"Wow Spagethi Aglio Olio",
			"Wow Pasta Carbonara",
			"Wow Pasta Bolognese",
			"Wow Pasta Aglio Olio",
		},
		DefectTypes: []string{
			"Kodefikasi",
			"Ganti Cello",
			"Kemasan Nginjek Mie",
			"Kemasan Nginjek Bumbu",
			"Setting Kemasan",
			"Kemasan Jebol",
			"Kemasan Over/Under",
			"Kemasan Melipat/Ngiris",
		},
		Shifts: []string{"Shift 1", "Shift 2", "Shift 3"},
	}
}

// Load 从 YAML 文件加载主数据；路径为空或文件不存在时返回内置主数据
// 文件中未给出的分组沿用内置值
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var fromFile Catalog
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(fromFile.Machines) > 0 {
		c.Machines = trimAll(fromFile.Machines)
	}
	if len(fromFile.Variants) > 0 {
		c.Variants = trimAll(fromFile.Variants)
	}
	if len(fromFile.DefectTypes) > 0 {
		c.DefectTypes = trimAll(fromFile.DefectTypes)
	}
	if len(fromFile.Shifts) > 0 {
		c.Shifts = trimAll(fromFile.Shifts)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save 写出 YAML（用于生成模板）
func (c *Catalog) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate 主数据不能占用哨兵值
func (c *Catalog) Validate() error {
	for _, group := range [][]string{c.Machines, c.Variants, c.DefectTypes} {
		if slices.Contains(group, sentinel) {
			return fmt.Errorf("catalog must not contain reserved value %q", sentinel)
		}
	}
	return nil
}

// sentinel 与 model.SentinelDefectType 相同，避免 catalog 依赖 model
const sentinel = "STT_DUMMY_OUTPUT"

func (c *Catalog) HasMachine(v string) bool    { return slices.Contains(c.Machines, v) }
func (c *Catalog) HasVariant(v string) bool    { return slices.Contains(c.Variants, v) }
func (c *Catalog) HasDefectType(v string) bool { return slices.Contains(c.DefectTypes, v) }
func (c *Catalog) HasShift(v string) bool      { return slices.Contains(c.Shifts, v) }

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

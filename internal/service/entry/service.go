package entry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"linewaste/internal/catalog"
	"linewaste/internal/model"
	"linewaste/internal/service/repository"
)

// Service 录入服务：校验表单后对存储做整表读改写
type Service struct {
	repo    *repository.Repository
	catalog *catalog.Catalog
	logger  *zap.Logger
	now     func() time.Time
}

// NewService 创建录入服务
func NewService(repo *repository.Repository, cat *catalog.Catalog, logger *zap.Logger) *Service {
	if cat == nil {
		cat = catalog.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		catalog: cat,
		logger:  logger,
		now:     time.Now,
	}
}

// Catalog 当前主数据
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// SaveDefects 保存缺陷明细表单
func (s *Service) SaveDefects(ctx context.Context, form DefectForm) (Result, error) {
	if err := ValidateDefects(s.catalog, s.now(), form); err != nil {
		return Result{}, err
	}
	var res Result
	_, err := s.repo.Update(ctx, func(raw []model.RawRow) ([]model.RawRow, bool, error) {
		var next []model.RawRow
		next, res = ApplyDefects(raw, form, s.catalog.DefectTypes)
		return next, res.Changed, nil
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("defect details saved",
		zap.String("date", model.Day(form.Date).Format(model.DateLayout)),
		zap.String("shift", form.Shift),
		zap.String("machine", form.Machine),
		zap.String("variant", form.Variant),
		zap.Int("deleted", res.Deleted),
		zap.Int("added", res.Added),
	)
	return res, nil
}

// SaveOutput 保存产量与审计废料
func (s *Service) SaveOutput(ctx context.Context, form OutputForm) (Result, error) {
	if err := ValidateOutput(s.catalog, s.now(), form); err != nil {
		return Result{}, err
	}
	var res Result
	_, err := s.repo.Update(ctx, func(raw []model.RawRow) ([]model.RawRow, bool, error) {
		var next []model.RawRow
		next, res = ApplyOutput(raw, form)
		return next, res.Changed, nil
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("output aggregate saved",
		zap.String("date", model.Day(form.Date).Format(model.DateLayout)),
		zap.String("shift", form.Shift),
		zap.String("variant", form.Variant),
		zap.Bool("removed", form.Aggregate().IsEmpty()),
	)
	return res, nil
}

// PurgeCorrupt 从存储中清除塌缩的哨兵行，返回清除数量
func (s *Service) PurgeCorrupt(ctx context.Context) (int, error) {
	removed := 0
	_, err := s.repo.Update(ctx, func(raw []model.RawRow) ([]model.RawRow, bool, error) {
		var next []model.RawRow
		next, removed = PurgeCorrupt(raw)
		return next, removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Warn("corrupt sentinel rows purged", zap.Int("removed", removed))
	}
	return removed, nil
}

// CurrentDefects 表单预填：某机台某品种当前的明细，按缺陷类型索引
func CurrentDefects(rows []model.Observation, date time.Time, shift, machine, variant string) map[string]DefectInput {
	slot := DefectForm{Date: date, Shift: shift, Machine: machine, Variant: variant}.Slot()
	out := make(map[string]DefectInput)
	for _, o := range rows {
		e, err := model.EntryFromObservation(o)
		if err != nil {
			continue
		}
		d, ok := e.(model.DefectDetail)
		if !ok || d.Key().Slot() != slot {
			continue
		}
		out[d.DefectType] = DefectInput{
			DefectType: d.DefectType,
			Hours:      d.Hours,
			Correction: d.Correction,
		}
	}
	return out
}

// CurrentOutput 表单预填：某品种当前的产量与审计废料，不存在时返回 false
func CurrentOutput(rows []model.Observation, date time.Time, shift, variant string) (OutputForm, bool) {
	target := OutputForm{Date: date, Shift: shift, Variant: variant}.Aggregate().Key()
	for i := len(rows) - 1; i >= 0; i-- {
		o := rows[i]
		// 机台与品种不一致的哨兵行不是规范的汇总行
		if o.Machine != o.Variant {
			continue
		}
		e, err := model.EntryFromObservation(o)
		if err != nil {
			continue
		}
		agg, ok := e.(model.OutputAggregate)
		if !ok || agg.Key() != target {
			continue
		}
		return OutputForm{
			Date:           model.Day(agg.Date),
			Shift:          agg.Shift,
			Variant:        agg.Variant,
			AuditedWasteKg: agg.AuditedWasteKg,
			OutputPcs:      agg.OutputPcs,
		}, true
	}
	return OutputForm{}, false
}

package prediction

import (
	"bytes"
	"context"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/xelth-com/eckposgo/internal/forecast"
	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/metrics"
	"github.com/xelth-com/eckposgo/internal/models"
	"github.com/xelth-com/eckposgo/internal/repository"
)

// Service owns the demand model: training, persistence and queries
type Service struct {
	repos *repository.Repos
	model *forecast.Model
	log   *logger.Logger

	trainMu sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewService(repos *repository.Repos, model *forecast.Model, baseLog *logger.Logger) *Service {
	return &Service{
		repos: repos,
		model: model,
		log:   baseLog.With("service", "PredictionService"),
		stop:  make(chan struct{}),
	}
}

// Info reports the state of the demand model
func (s *Service) Info() forecast.Info {
	return s.model.Info()
}

// TrainResult is returned after a successful training run
type TrainResult struct {
	Message string  `json:"message"`
	Score   float64 `json:"score"`
	Rows    int     `json:"rows"`
}

// Train fits the model on the whole sales history and persists a snapshot.
// Runs are serialized; pricing is never blocked by training.
func (s *Service) Train(ctx context.Context) (*TrainResult, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	history, err := s.history(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	score, err := s.model.Train(history)
	if err != nil {
		return nil, err
	}
	metrics.TrainingDuration.Observe(time.Since(start).Seconds())
	metrics.ModelScore.Set(score)

	info := s.model.Info()
	var buf bytes.Buffer
	if err := s.model.Save(&buf); err != nil {
		return nil, err
	}
	snap := &models.DemandModelSnapshot{Payload: datatypes.JSON(buf.Bytes()), Score: score, Rows: info.Rows}
	if err := s.repos.Snapshots.Save(ctx, nil, snap); err != nil {
		return nil, err
	}

	s.log.Info("demand model trained", "score", score, "rows", info.Rows, "sale_lines", len(history), "took", time.Since(start))
	return &TrainResult{Message: "Model trained successfully", Score: score, Rows: info.Rows}, nil
}

// Restore loads the latest persisted snapshot. It reports false when none exists.
func (s *Service) Restore(ctx context.Context) (bool, error) {
	snap, err := s.repos.Snapshots.Latest(ctx, nil)
	if err != nil {
		return false, err
	}
	if snap == nil {
		return false, nil
	}
	if err := s.model.Load(bytes.NewReader(snap.Payload)); err != nil {
		return false, err
	}
	metrics.ModelScore.Set(snap.Score)
	s.log.Info("demand model restored", "snapshot_id", snap.ID, "score", snap.Score, "rows", snap.Rows)
	return true, nil
}

// ProductForecast is the demand outlook of one product at its live price
type ProductForecast struct {
	ProductID    uint                   `json:"product_id"`
	ProductName  string                 `json:"product_name"`
	CurrentPrice float64                `json:"current_price"`
	Forecast     []forecast.ForecastRow `json:"forecast"`
}

func (s *Service) Forecast(ctx context.Context, productID uint, days int) (*ProductForecast, error) {
	p, err := s.repos.Products.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, err
	}
	history, err := s.history(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.model.ForecastFutureSales(productID, days, p.CurrentPrice, history)
	if err != nil {
		return nil, err
	}
	return &ProductForecast{ProductID: p.ID, ProductName: p.Name, CurrentPrice: p.CurrentPrice, Forecast: rows}, nil
}

// OptimalPrice is the optimizer result with the product context it ran against
type OptimalPrice struct {
	ProductName  string  `json:"product_name"`
	CostPrice    float64 `json:"cost_price"`
	CurrentPrice float64 `json:"current_price"`
	forecast.Optimum
}

// OptimalPrice scans the price interval for the highest predicted profit.
// Missing bounds default to cost × 1.1 and base × 1.5.
func (s *Service) OptimalPrice(ctx context.Context, productID uint, lo, hi *float64) (*OptimalPrice, error) {
	p, err := s.repos.Products.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, err
	}
	r := forecast.DefaultPriceRange(p.CostPrice, p.BasePrice)
	if lo != nil {
		r.Min = *lo
	}
	if hi != nil {
		r.Max = *hi
	}
	history, err := s.history(ctx)
	if err != nil {
		return nil, err
	}
	best, err := forecast.OptimizePrice(ctx, s.model, productID, history, r, p.CostPrice)
	if err != nil {
		return nil, err
	}
	return &OptimalPrice{ProductName: p.Name, CostPrice: p.CostPrice, CurrentPrice: p.CurrentPrice, Optimum: best}, nil
}

func (s *Service) history(ctx context.Context) ([]forecast.SaleRecord, error) {
	lines, err := s.repos.Sales.Lines(ctx, nil, repository.Period{})
	if err != nil {
		return nil, err
	}
	out := make([]forecast.SaleRecord, len(lines))
	for i, l := range lines {
		out[i] = forecast.SaleRecord{
			Timestamp: l.Timestamp,
			ProductID: l.ProductID,
			Quantity:  float64(l.Quantity),
			Price:     l.PriceAtSale,
		}
	}
	return out, nil
}

// Start retrains the model every interval until Stop. A non-positive
// interval leaves background training disabled.
func (s *Service) Start(interval time.Duration) {
	if interval <= 0 {
		s.log.Info("background model training disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("background model training started", "interval", interval)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				if _, err := s.Train(ctx); err != nil {
					s.log.Warn("scheduled training failed", "error", err)
				}
				cancel()
			case <-s.stop:
				s.log.Info("background model training stopped")
				return
			}
		}
	}()
}

// Stop halts background training and waits for a running pass to finish
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}

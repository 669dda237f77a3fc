package forecast

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/xelth-com/eckposgo/internal/apperr"
)

const (
	// DefaultRidgeLambda keeps the one-hot columns solvable alongside the intercept
	DefaultRidgeLambda = 1e-3
	// DefaultTestFraction is the share of rows held out for scoring
	DefaultTestFraction = 0.2
	// DefaultSeed fixes the train/test shuffle
	DefaultSeed = 42
	// MaxDaysAhead caps one forecast at ten years of daily rows
	MaxDaysAhead = 3650

	snapshotVersion = 1
)

// Option configures a Model
type Option func(*Model)

// WithRidgeLambda sets the L2 penalty; non-positive values are ignored
func WithRidgeLambda(lambda float64) Option {
	return func(m *Model) {
		if lambda > 0 {
			m.lambda = lambda
		}
	}
}

// WithSeed sets the seed of the train/test shuffle
func WithSeed(seed int64) Option {
	return func(m *Model) { m.seed = seed }
}

// WithTestFraction sets the held-out share; values outside [0,1) are ignored
func WithTestFraction(f float64) Option {
	return func(m *Model) {
		if f >= 0 && f < 1 {
			m.testFraction = f
		}
	}
}

// Model predicts units sold per product and day. A new Model is untrained;
// Train moves it to trained and later calls only refit the coefficients. The
// encoder's categories are fitted once, on the first training.
type Model struct {
	mu sync.RWMutex

	lambda       float64
	seed         int64
	testFraction float64

	encoder   *OneHotEncoder
	regressor *linearModel
	score     float64
	trainedAt time.Time
	rows      int
}

// NewModel returns an untrained model
func NewModel(opts ...Option) *Model {
	m := &Model{
		lambda:       DefaultRidgeLambda,
		seed:         DefaultSeed,
		testFraction: DefaultTestFraction,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Info summarises the model state
type Info struct {
	Trained   bool      `json:"trained"`
	Score     float64   `json:"score"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
	Rows      int       `json:"rows"`
	Features  []string  `json:"features,omitempty"`
}

// Trained reports whether the model can predict
func (m *Model) Trained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.regressor != nil
}

// Info returns a snapshot of the model state
func (m *Model) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info := Info{Trained: m.regressor != nil, Score: m.score, TrainedAt: m.trainedAt, Rows: m.rows}
	if m.encoder != nil {
		info.Features = m.encoder.FeatureNames()
	}
	return info
}

// Train fits the model on raw sale history and returns the coefficient of
// determination on the held-out rows.
func (m *Model) Train(history []SaleRecord) (float64, error) {
	if len(history) == 0 {
		return 0, apperr.InsufficientData("no sales history to train on")
	}
	rows := Aggregate(history)

	m.mu.Lock()
	defer m.mu.Unlock()

	encoder := m.encoder
	if encoder == nil {
		encoder = FitEncoder(rows)
	}

	trainIdx, testIdx := m.split(len(rows))

	x, y := design(encoder, rows, trainIdx)
	regressor, err := fitRidge(x, y, m.lambda)
	if err != nil {
		return 0, fmt.Errorf("fit demand model: %w", err)
	}

	estimates := make([]float64, len(testIdx))
	observed := make([]float64, len(testIdx))
	features := make([]float64, encoder.Width()+numericFeatures)
	for i, idx := range testIdx {
		encoder.Features(rows[idx], features)
		estimates[i] = regressor.predict(features)
		observed[i] = rows[idx].Quantity
	}
	score := rSquared(estimates, observed)

	m.encoder = encoder
	m.regressor = regressor
	m.score = score
	m.rows = len(rows)
	m.trainedAt = time.Now().UTC()
	return score, nil
}

// split shuffles row indices with the model seed and holds out
// ceil(n*testFraction) of them. If nothing would be left to train on, all
// rows are used for both fitting and scoring.
func (m *Model) split(n int) (train, test []int) {
	perm := rand.New(rand.NewSource(m.seed)).Perm(n)
	nTest := int(math.Ceil(float64(n) * m.testFraction))
	if nTest == 0 || nTest >= n {
		return perm, perm
	}
	return perm[nTest:], perm[:nTest]
}

func design(encoder *OneHotEncoder, rows []DailyRow, idx []int) (*mat.Dense, []float64) {
	width := encoder.Width() + numericFeatures
	x := mat.NewDense(len(idx), width, nil)
	y := make([]float64, len(idx))
	features := make([]float64, width)
	for i, r := range idx {
		encoder.Features(rows[r], features)
		x.SetRow(i, features)
		y[i] = rows[r].Quantity
	}
	return x, y
}

// predictor is one trained state. Train swaps in a new regressor instead of
// mutating the old one, so a predictor stays consistent after the lock is
// released.
type predictor struct {
	encoder   *OneHotEncoder
	regressor *linearModel
}

func (p predictor) predict(rows []DailyRow) []float64 {
	out := make([]float64, len(rows))
	features := make([]float64, p.encoder.Width()+numericFeatures)
	for i, r := range rows {
		p.encoder.Features(r, features)
		out[i] = p.regressor.predict(features)
	}
	return out
}

// current returns the trained state, or false before the first training
func (m *Model) current() (predictor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.regressor == nil {
		return predictor{}, false
	}
	return predictor{encoder: m.encoder, regressor: m.regressor}, true
}

// Predict returns the expected quantity for every row, in input order
func (m *Model) Predict(rows []DailyRow) ([]float64, error) {
	p, ok := m.current()
	if !ok {
		return nil, apperr.ModelNotTrained("demand model must be trained before predicting")
	}
	return p.predict(rows), nil
}

// ForecastRow is the predicted demand of one product on one future day
type ForecastRow struct {
	Date              time.Time `json:"date"`
	ProductID         uint      `json:"product_id"`
	PredictedQuantity float64   `json:"predicted_quantity"`
	Price             float64   `json:"price"`
}

// ForecastFutureSales predicts daysAhead consecutive days after the latest
// recorded sale of productID, holding the price at basePrice. Future rows
// keep the time of day of that latest sale.
func (m *Model) ForecastFutureSales(productID uint, daysAhead int, basePrice float64, history []SaleRecord) ([]ForecastRow, error) {
	if daysAhead < 1 || daysAhead > MaxDaysAhead {
		return nil, apperr.Validation("days ahead must be between 1 and %d, got %d", MaxDaysAhead, daysAhead)
	}
	p, ok := m.current()
	if !ok {
		return nil, apperr.ModelNotTrained("demand model must be trained before forecasting")
	}
	sales := filterProduct(history, productID)
	if len(sales) == 0 {
		return nil, apperr.InsufficientData("no sales history for product %d", productID)
	}

	latest := sales[0].Timestamp
	for _, s := range sales[1:] {
		if s.Timestamp.After(latest) {
			latest = s.Timestamp
		}
	}
	latest = latest.UTC()

	rows := make([]DailyRow, daysAhead)
	for i := range rows {
		ts := latest.AddDate(0, 0, i+1)
		rows[i] = DailyRow{Day: dayOf(ts), Hour: ts.Hour(), ProductID: productID, Price: basePrice}
	}
	predicted := p.predict(rows)

	out := make([]ForecastRow, daysAhead)
	for i, r := range rows {
		out[i] = ForecastRow{Date: r.Day, ProductID: productID, PredictedQuantity: predicted[i], Price: basePrice}
	}
	return out, nil
}

// snapshot is the persisted form of a trained model. Encoder and regressor
// always travel together.
type snapshot struct {
	Version   int            `json:"version"`
	Lambda    float64        `json:"lambda"`
	Encoder   *OneHotEncoder `json:"encoder"`
	Regressor *linearModel   `json:"regressor"`
	Score     float64        `json:"score"`
	Rows      int            `json:"rows"`
	TrainedAt time.Time      `json:"trained_at"`
}

// Save writes the trained model as a single JSON document
func (m *Model) Save(w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.regressor == nil {
		return apperr.ModelNotTrained("cannot save an untrained model")
	}
	return json.NewEncoder(w).Encode(snapshot{
		Version:   snapshotVersion,
		Lambda:    m.lambda,
		Encoder:   m.encoder,
		Regressor: m.regressor,
		Score:     m.score,
		Rows:      m.rows,
		TrainedAt: m.trainedAt,
	})
}

// Load replaces the model state with a document written by Save
func (m *Model) Load(r io.Reader) error {
	var s snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return apperr.Validation("decode model snapshot: %v", err)
	}
	if s.Version != snapshotVersion {
		return apperr.Validation("unsupported model snapshot version %d", s.Version)
	}
	if s.Encoder == nil || s.Regressor == nil {
		return apperr.Validation("model snapshot must contain both encoder and regressor")
	}
	if want := s.Encoder.Width() + numericFeatures; len(s.Regressor.Coef) != want {
		return apperr.Validation("model snapshot has %d coefficients, encoder expects %d", len(s.Regressor.Coef), want)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Lambda > 0 {
		m.lambda = s.Lambda
	}
	m.encoder = s.Encoder
	m.regressor = s.Regressor
	m.score = s.Score
	m.rows = s.Rows
	m.trainedAt = s.TrainedAt
	return nil
}

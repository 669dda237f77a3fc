package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/xelth-com/eckposgo/internal/config"
	"github.com/xelth-com/eckposgo/internal/database"
	"github.com/xelth-com/eckposgo/internal/forecast"
	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/models"
	core "github.com/xelth-com/eckposgo/internal/pricing"
	"github.com/xelth-com/eckposgo/internal/repository"
	"github.com/xelth-com/eckposgo/internal/services/prediction"
	"github.com/xelth-com/eckposgo/internal/services/pricing"
	"github.com/xelth-com/eckposgo/internal/services/staff"
)

var demoProducts = []pricing.NewProduct{
	{Name: "Milk", SKU: "123456789014", CostPrice: 1.00, BasePrice: 2.50, StockQuantity: 50, Description: "Fresh dairy milk"},
	{Name: "Banana", SKU: "123456789015", CostPrice: 1.20, BasePrice: 3.00, StockQuantity: 60, Description: "Fresh ripe banana"},
	{Name: "Orange Juice", SKU: "123456789016", CostPrice: 1.50, BasePrice: 3.50, StockQuantity: 40, Description: "Fresh squeezed orange juice"},
	{Name: "Apple", SKU: "123456789017", CostPrice: 1.00, BasePrice: 2.20, StockQuantity: 75, Description: "Crisp red apple"},
	{Name: "Bread", SKU: "123456789018", CostPrice: 1.80, BasePrice: 4.00, StockQuantity: 90, Description: "Whole wheat bread loaf"},
	{Name: "Eggs", SKU: "123456789019", CostPrice: 2.50, BasePrice: 5.00, StockQuantity: 120, Description: "Farm fresh eggs"},
	{Name: "Cheddar Cheese", SKU: "123456789020", CostPrice: 3.00, BasePrice: 6.50, StockQuantity: 50, Description: "Sharp aged cheddar cheese"},
	{Name: "Butter", SKU: "123456789021", CostPrice: 2.80, BasePrice: 5.50, StockQuantity: 45, Description: "Creamy salted butter"},
	{Name: "Chicken Breast", SKU: "123456789022", CostPrice: 5.00, BasePrice: 10.50, StockQuantity: 60, Description: "Fresh boneless chicken breast"},
	{Name: "Ground Beef", SKU: "123456789023", CostPrice: 4.50, BasePrice: 9.00, StockQuantity: 55, Description: "Lean ground beef"},
	{Name: "Salmon Fillet", SKU: "123456789024", CostPrice: 7.00, BasePrice: 14.50, StockQuantity: 30, Description: "Fresh Atlantic salmon fillet"},
	{Name: "Lettuce", SKU: "123456789025", CostPrice: 1.20, BasePrice: 2.50, StockQuantity: 70, Description: "Crispy green lettuce"},
	{Name: "Tomato", SKU: "123456789026", CostPrice: 1.50, BasePrice: 3.20, StockQuantity: 80, Description: "Fresh vine-ripened tomatoes"},
	{Name: "Cucumber", SKU: "123456789027", CostPrice: 1.00, BasePrice: 2.20, StockQuantity: 85, Description: "Cool and crisp cucumber"},
	{Name: "Potato", SKU: "123456789028", CostPrice: 1.30, BasePrice: 3.00, StockQuantity: 100, Description: "Starchy white potato"},
	{Name: "Carrot", SKU: "123456789029", CostPrice: 1.10, BasePrice: 2.50, StockQuantity: 95, Description: "Sweet fresh carrots"},
	{Name: "Onion", SKU: "123456789030", CostPrice: 1.00, BasePrice: 2.00, StockQuantity: 110, Description: "Pungent yellow onion"},
	{Name: "Garlic", SKU: "123456789031", CostPrice: 1.20, BasePrice: 2.80, StockQuantity: 90, Description: "Aromatic fresh garlic"},
	{Name: "Olive Oil", SKU: "123456789032", CostPrice: 5.00, BasePrice: 10.00, StockQuantity: 40, Description: "Extra virgin olive oil"},
	{Name: "Pasta", SKU: "123456789033", CostPrice: 2.00, BasePrice: 4.50, StockQuantity: 60, Description: "Durum wheat spaghetti"},
	{Name: "Rice", SKU: "123456789034", CostPrice: 3.00, BasePrice: 6.00, StockQuantity: 75, Description: "Long-grain white rice"},
	{Name: "Black Beans", SKU: "123456789035", CostPrice: 2.50, BasePrice: 5.00, StockQuantity: 65, Description: "Organic black beans"},
	{Name: "Canned Tuna", SKU: "123456789036", CostPrice: 2.80, BasePrice: 5.50, StockQuantity: 50, Description: "Canned light tuna in water"},
	{Name: "Yogurt", SKU: "123456789037", CostPrice: 2.20, BasePrice: 4.80, StockQuantity: 70, Description: "Greek yogurt, plain"},
	{Name: "Almond Milk", SKU: "123456789038", CostPrice: 3.00, BasePrice: 6.00, StockQuantity: 45, Description: "Unsweetened almond milk"},
	{Name: "Peanut Butter", SKU: "123456789039", CostPrice: 3.50, BasePrice: 7.00, StockQuantity: 50, Description: "Creamy peanut butter"},
	{Name: "Jam", SKU: "123456789040", CostPrice: 2.80, BasePrice: 5.50, StockQuantity: 55, Description: "Strawberry jam"},
	{Name: "Honey", SKU: "123456789041", CostPrice: 4.00, BasePrice: 8.00, StockQuantity: 40, Description: "Organic raw honey"},
	{Name: "Cereal", SKU: "123456789042", CostPrice: 3.00, BasePrice: 6.50, StockQuantity: 65, Description: "Whole grain breakfast cereal"},
	{Name: "Chocolate", SKU: "123456789043", CostPrice: 2.50, BasePrice: 5.00, StockQuantity: 70, Description: "Dark chocolate bar"},
	{Name: "Ice Cream", SKU: "123456789044", CostPrice: 4.50, BasePrice: 9.00, StockQuantity: 35, Description: "Vanilla bean ice cream"},
	{Name: "Coffee Beans", SKU: "123456789045", CostPrice: 6.00, BasePrice: 12.00, StockQuantity: 40, Description: "Premium Arabica coffee beans"},
	{Name: "Tea", SKU: "123456789046", CostPrice: 3.50, BasePrice: 7.00, StockQuantity: 55, Description: "Organic green tea"},
	{Name: "Toilet Paper", SKU: "123456789047", CostPrice: 5.00, BasePrice: 10.50, StockQuantity: 100, Description: "Soft 2-ply toilet paper"},
	{Name: "Dish Soap", SKU: "123456789048", CostPrice: 2.50, BasePrice: 5.00, StockQuantity: 60, Description: "Lemon-scented dish soap"},
}

// breakfast members share one profit target
var breakfast = []string{"Milk", "Bread", "Eggs", "Butter", "Jam"}

type demoRule struct {
	product   string
	ruleType  string
	condition string
	discount  float64
}

var demoRules = []demoRule{
	{"Bread", "time_of_day", `{"start_hour":18,"end_hour":22}`, 20},
	{"Milk", "stock_level", `{"min_stock":0,"max_stock":15}`, 15},
	{"Ice Cream", "vacancy_rate", `{"min_rate":60}`, 10},
	{"Coffee Beans", "line_length", `{"min_length":8}`, 5},
	{"Banana", "day_of_week", `{"days":[5,6]}`, 10},
}

func main() {
	days := flag.Int("days", 30, "days of simulated sales history")
	seed := flag.Int64("seed", 42, "random seed for simulated sales")
	train := flag.Bool("train", true, "train the demand model after seeding")
	flag.Parse()

	fmt.Println("🌱 eckPOS Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("❌ Failed to init logger: %v", err)
	}

	db, err := database.Connect(cfg.Database, appLog)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db.DB); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	var productCount int64
	db.Model(&models.Product{}).Count(&productCount)
	if productCount > 0 {
		fmt.Printf("⚠️  Database already has %d products. Nothing to do.\n", productCount)
		return
	}

	ctx := context.Background()
	repos := repository.New(db.DB, appLog)
	prices := pricing.NewService(repos, nil, cfg.Store.Location, appLog)

	// 1. Manager account
	username := envOr("SEED_MANAGER_USERNAME", "manager")
	password := envOr("SEED_MANAGER_PASSWORD", "change-me-please")
	staffSvc := staff.NewService(repos, cfg.JWTSecret, appLog)
	if _, err := staffSvc.Create(ctx, staff.NewStaff{Username: username, Password: password, Name: "Store Manager", Role: models.RoleManager}); err != nil {
		log.Fatalf("❌ Failed to create manager: %v", err)
	}
	fmt.Printf("✅ Manager account %q created\n", username)

	// 2. Products
	byName := make(map[string]*models.Product, len(demoProducts))
	for _, in := range demoProducts {
		p, err := prices.CreateProduct(ctx, in)
		if err != nil {
			log.Fatalf("❌ Failed to add %s: %v", in.Name, err)
		}
		byName[p.Name] = p
	}
	fmt.Printf("✅ Added %d products\n", len(byName))

	// 3. Profit group
	group, err := prices.CreateGroup(ctx, "Breakfast Bundle", 12)
	if err != nil {
		log.Fatalf("❌ Failed to create profit group: %v", err)
	}
	for _, name := range breakfast {
		if _, err := prices.AddToGroup(ctx, group.ID, byName[name].ID); err != nil {
			log.Fatalf("❌ Failed to add %s to group: %v", name, err)
		}
	}
	fmt.Printf("✅ Profit group %q with %d products\n", group.Name, len(breakfast))

	// 4. Pricing rules
	for _, r := range demoRules {
		if _, err := prices.CreateRule(ctx, pricing.NewRule{
			ProductID:          byName[r.product].ID,
			RuleType:           r.ruleType,
			Condition:          json.RawMessage(r.condition),
			DiscountPercentage: r.discount,
		}); err != nil {
			log.Fatalf("❌ Failed to add %s rule for %s: %v", r.ruleType, r.product, err)
		}
	}
	fmt.Printf("✅ Added %d pricing rules\n", len(demoRules))

	// 5. Sales history
	count, err := simulateSales(ctx, repos, byName, *days, rand.New(rand.NewSource(*seed)))
	if err != nil {
		log.Fatalf("❌ Failed to simulate sales: %v", err)
	}
	fmt.Printf("✅ Simulated %d sales over %d days\n", count, *days)

	if *train {
		predictions := prediction.NewService(repos, forecast.NewModel(forecast.WithRidgeLambda(cfg.Prediction.RidgeLambda)), appLog)
		res, err := predictions.Train(ctx)
		if err != nil {
			log.Fatalf("❌ Failed to train demand model: %v", err)
		}
		fmt.Printf("✅ Demand model trained (R² %.3f on %d rows)\n", res.Score, res.Rows)
	}

	fmt.Println("🎉 Demo data ready")
}

// simulateSales writes historical baskets straight through the repositories.
// Prices wobble around the base price so the demand model sees a slope;
// stock is left untouched.
func simulateSales(ctx context.Context, repos *repository.Repos, byName map[string]*models.Product, days int, rng *rand.Rand) (int, error) {
	products := make([]*models.Product, 0, len(byName))
	for _, in := range demoProducts {
		products = append(products, byName[in.Name])
	}

	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -days)
	count := 0
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		baskets := 8 + rng.Intn(10)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			baskets += 6
		}
		for b := 0; b < baskets; b++ {
			at := day.Add(time.Duration(8+rng.Intn(13))*time.Hour + time.Duration(rng.Intn(60))*time.Minute)
			sale := &models.Sale{Timestamp: at, PaymentMethod: []string{"cash", "card"}[rng.Intn(2)]}
			if err := repos.Sales.Create(ctx, nil, sale); err != nil {
				return count, err
			}
			for i := 1 + rng.Intn(4); i > 0; i-- {
				p := products[rng.Intn(len(products))]
				factor := 0.85 + rng.Float64()*0.3
				price := core.RoundCurrency(p.BasePrice * factor)
				// cheaper days sell more
				qty := 1 + int((1.15-factor)*10*rng.Float64())
				if err := repos.Sales.AddItem(ctx, nil, &models.SaleItem{
					SaleID: sale.ID, ProductID: p.ID, Quantity: qty, PriceAtSale: price,
				}); err != nil {
					return count, err
				}
			}
			count++
		}
	}
	return count, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iShirker/PoD-ShopManager/internal/model"
	"github.com/iShirker/PoD-ShopManager/pkg/supplier"
)

// 类型映射中 Gildan 5000 的各供应商 ID
const (
	gelatoTeeID   = "gildan-5000-heavy-cotton-tee"
	printifyTeeID = "6"
	printfulTeeID = "71"
)

func compareEnv(t *testing.T, gelatoBase, gelatoShip, printifyBase, printifyShip string) (*testEnv, map[supplier.Kind]*model.SupplierConnection) {
	gelato := newFakeAdapter(supplier.Gelato)
	gelato.prices[gelatoTeeID] = d(gelatoBase)
	gelato.shipping[gelatoTeeID] = d(gelatoShip)
	printify := newFakeAdapter(supplier.Printify)
	printify.prices[printifyTeeID] = d(printifyBase)
	printify.shipping[printifyTeeID] = d(printifyShip)

	env := newTestEnv(t, gelato, printify)
	conns := map[supplier.Kind]*model.SupplierConnection{
		supplier.Gelato:   env.seedConnection(t, 1, supplier.Gelato),
		supplier.Printify: env.seedConnection(t, 1, supplier.Printify),
	}
	return env, conns
}

func TestCompareListing_CheaperSupplierScenario(t *testing.T) {
	env, conns := compareEnv(t, "10.00", "2.50", "8.00", "2.00")
	shop := env.seedShop(t, 1)
	product := env.seedProduct(t, shop, "L1", model.SupplierGelato, heavyCottonTee, "GEL_5000_M_WHITE")

	result, ok, err := env.Compare.CompareListing(context.Background(), product, conns, true)
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, result.Suppliers, 2)
	assert.True(t, d("12.50").Equal(result.Suppliers["gelato"].TotalCost))
	assert.True(t, d("10.00").Equal(result.Suppliers["printify"].TotalCost))
	assert.Equal(t, "printify", result.BestSupplier)
	assert.True(t, d("10.00").Equal(result.BestPrice))
	assert.True(t, d("2.50").Equal(result.PotentialSavings), result.PotentialSavings.String())
	assert.True(t, d("20").Equal(result.SavingsPercent), result.SavingsPercent.String())
	assert.NotEmpty(t, result.Suppliers["printify"].Variants)
}

func TestCompareListing_Monotonicity(t *testing.T) {
	// Printify 固定 10.00，当前供应商 Gelato 成本递增时节省不减少
	costs := []string{"8.00", "10.00", "12.50", "20.00"}
	want := []string{"0", "0", "2.50", "10.00"}

	prev := d("0")
	for i, cost := range costs {
		env, conns := compareEnv(t, cost, "0", "10.00", "0")
		shop := env.seedShop(t, 1)
		product := env.seedProduct(t, shop, "L1", model.SupplierGelato, heavyCottonTee, "GEL_A")

		result, ok, err := env.Compare.CompareListing(context.Background(), product, conns, false)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, d(want[i]).Equal(result.PotentialSavings), "cost %s savings %s", cost, result.PotentialSavings)
		assert.False(t, result.PotentialSavings.LessThan(prev))
		assert.False(t, result.PotentialSavings.IsNegative())
		assert.Nil(t, result.Suppliers["printify"].Variants)
		prev = result.PotentialSavings
	}
}

func TestCompareListing_SupplierErrorIsOmitted(t *testing.T) {
	gelato := newFakeAdapter(supplier.Gelato)
	gelato.prices[gelatoTeeID] = d("10")
	printful := newFakeAdapter(supplier.Printful)
	printful.errs[printfulTeeID] = &supplier.APIError{Supplier: supplier.Printful, Status: 502}
	env := newTestEnv(t, gelato, printful)
	conns := map[supplier.Kind]*model.SupplierConnection{
		supplier.Gelato:   env.seedConnection(t, 1, supplier.Gelato),
		supplier.Printful: env.seedConnection(t, 1, supplier.Printful),
	}
	shop := env.seedShop(t, 1)
	product := env.seedProduct(t, shop, "L1", model.SupplierPrintful, heavyCottonTee, "PFL_A")

	result, ok, err := env.Compare.CompareListing(context.Background(), product, conns, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, result.Suppliers, 1)
	assert.Equal(t, "gelato", result.BestSupplier)
	// 当前供应商无报价时不计算节省
	assert.True(t, result.PotentialSavings.IsZero())
}

func TestCompareListing_NoMapping(t *testing.T) {
	env, conns := compareEnv(t, "10", "0", "10", "0")
	shop := env.seedShop(t, 1)
	ctx := context.Background()

	product := env.seedProduct(t, shop, "L1", model.SupplierGelato, "Ceramic Mug", "GEL_MUG")
	_, ok, err := env.Compare.CompareListing(ctx, product, conns, false)
	require.NoError(t, err)
	assert.False(t, ok)

	untyped := env.seedProduct(t, shop, "L2", model.SupplierGelato, "", "GEL_X")
	_, err = env.Compare.CompareForUser(ctx, 1, untyped.ID)
	assert.ErrorIs(t, err, ErrNoProductType)

	_, err = env.Compare.CompareForUser(ctx, 1, product.ID)
	var nm *NoMatchError
	assert.ErrorAs(t, err, &nm)

	_, err = env.Compare.CompareForUser(ctx, 99, product.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompareUserListingsAndSummary(t *testing.T) {
	env, _ := compareEnv(t, "10.00", "2.50", "8.00", "2.00")
	shop := env.seedShop(t, 1)
	ctx := context.Background()

	env.seedProduct(t, shop, "L1", model.SupplierGelato, heavyCottonTee, "GEL_1")
	env.seedProduct(t, shop, "L2", model.SupplierGelato, heavyCottonTee, "GEL_2")
	env.seedProduct(t, shop, "L3", model.SupplierPrintify, heavyCottonTee, "PFY_3")
	env.seedProduct(t, shop, "L4", model.SupplierGelato, "Ceramic Mug", "GEL_4")

	list, err := env.Compare.CompareUserListings(ctx, 1, CompareFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 3)

	onlyGelato, err := env.Compare.CompareUserListings(ctx, 1, CompareFilter{SupplierType: "gelato", ProductType: heavyCottonTee})
	require.NoError(t, err)
	assert.Len(t, onlyGelato, 2)

	summary, err := env.Compare.ComparisonSummary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalProducts)
	assert.Equal(t, 2, summary.ProductsWithSavings)
	assert.True(t, d("5.00").Equal(summary.TotalPotentialSavings))
	assert.Equal(t, 3, summary.BySupplier["gelato"].CurrentCount)
	assert.Equal(t, 1, summary.BySupplier["printify"].CurrentCount)
	assert.True(t, d("5.00").Equal(summary.BySupplier["gelato"].PotentialSavings))
	require.Contains(t, summary.ByProductType, heavyCottonTee)
	assert.Equal(t, 2, summary.ByProductType[heavyCottonTee].Count)
	assert.Equal(t, "printify", summary.ByProductType[heavyCottonTee].BestSupplier)

	types, err := env.Compare.ProductTypes(ctx, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, types)
}

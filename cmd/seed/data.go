package main

import "github.com/mustafakutlankale/my-ecommerce-app/internal/domain"

type itemSeed struct {
	Name        string
	Description string
	Price       float64
	Seller      string
	Image       string
	Category    domain.Category
	Attributes  domain.AttributeSet
}

type opinion struct {
	item   string
	rating int
	review string
}

type shopper struct {
	username string
	opinions []opinion
}

func ptr[T any](v T) *T { return &v }

var catalog = []itemSeed{
	{
		Name:        "Kind of Blue",
		Description: "1959 modal jazz landmark, original Columbia six-eye pressing.",
		Price:       240,
		Seller:      "Crate Diggers",
		Image:       "https://images.example.com/vinyl/kind-of-blue.jpg",
		Category:    domain.CategoryVinyls,
		Attributes:  domain.AttributeSet{Age: ptr(65)},
	},
	{
		Name:        "Rumours",
		Description: "Fleetwood Mac, 1977 first pressing with inner sleeve.",
		Price:       85,
		Seller:      "Second Spin",
		Image:       "https://images.example.com/vinyl/rumours.jpg",
		Category:    domain.CategoryVinyls,
		Attributes:  domain.AttributeSet{Age: ptr(48)},
	},
	{
		Name:        "Victorian Mahogany Writing Desk",
		Description: "Leather-topped desk with three drawers, circa 1870.",
		Price:       1850,
		Seller:      "Heritage Rooms",
		Image:       "https://images.example.com/furniture/writing-desk.jpg",
		Category:    domain.CategoryAntiqueFurniture,
		Attributes:  domain.AttributeSet{Age: ptr(155), Material: ptr("mahogany")},
	},
	{
		Name:        "Art Deco Walnut Armchair",
		Description: "Reupholstered club chair with original walnut frame.",
		Price:       920,
		Seller:      "Heritage Rooms",
		Image:       "https://images.example.com/furniture/deco-armchair.jpg",
		Category:    domain.CategoryAntiqueFurniture,
		Attributes:  domain.AttributeSet{Age: ptr(95), Material: ptr("walnut")},
	},
	{
		Name:        "Forerunner 265",
		Description: "AMOLED running watch with multi-band GPS.",
		Price:       449,
		Seller:      "Pace Supply",
		Image:       "https://images.example.com/watches/fr265.jpg",
		Category:    domain.CategoryGPSSportWatches,
		Attributes:  domain.AttributeSet{BatteryLife: ptr("13 days")},
	},
	{
		Name:        "Vertix 2S",
		Description: "Expedition watch with dual-frequency GPS and flashlight.",
		Price:       699,
		Seller:      "Summit Gear",
		Image:       "https://images.example.com/watches/vertix2s.jpg",
		Category:    domain.CategoryGPSSportWatches,
		Attributes:  domain.AttributeSet{BatteryLife: ptr("40 days")},
	},
	{
		Name:        "Pegasus 41",
		Description: "Daily trainer with ReactX foam.",
		Price:       140,
		Seller:      "Pace Supply",
		Image:       "https://images.example.com/shoes/pegasus41.jpg",
		Category:    domain.CategoryRunningShoes,
		Attributes:  domain.AttributeSet{Size: ptr("42"), Material: ptr("engineered mesh")},
	},
	{
		Name:        "Speedgoat 6",
		Description: "Trail shoe with Vibram Megagrip outsole.",
		Price:       155,
		Seller:      "Summit Gear",
		Image:       "https://images.example.com/shoes/speedgoat6.jpg",
		Category:    domain.CategoryRunningShoes,
		Attributes:  domain.AttributeSet{Size: ptr("44"), Material: ptr("recycled mesh")},
	},
}

var shoppers = []shopper{
	{
		username: "ayse",
		opinions: []opinion{
			{item: "Kind of Blue", rating: 10, review: "Quiet surfaces, deep bass. Worth every penny."},
			{item: "Forerunner 265", rating: 8, review: "Screen is gorgeous, battery a bit short on ultras."},
			{item: "Pegasus 41", rating: 7},
		},
	},
	{
		username: "mehmet",
		opinions: []opinion{
			{item: "Kind of Blue", rating: 8},
			{item: "Victorian Mahogany Writing Desk", rating: 9, review: "Drawers glide like new."},
			{item: "Speedgoat 6", rating: 9, review: "Grips on wet rock."},
		},
	},
	{
		username: "zeynep",
		opinions: []opinion{
			{item: "Rumours", rating: 6, review: "Light crackle on side B."},
			{item: "Art Deco Walnut Armchair", review: "Beautiful frame, cushions are firm."},
			{item: "Vertix 2S", rating: 10},
		},
	},
}

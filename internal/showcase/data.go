package showcase

// Products returns the demo store inventory
func Products() []Product {
	return []Product{
		{
			ID:            "1",
			Name:          "Premium Wireless Headphones",
			Price:         199.99,
			OriginalPrice: 249.99,
			Image:         "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=300&h=300&fit=crop&crop=center",
			Rating:        4.8,
			Reviews:       2847,
		},
		{
			ID:      "2",
			Name:    "Smart Fitness Watch",
			Price:   299.99,
			Image:   "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=300&h=300&fit=crop&crop=center",
			Rating:  4.6,
			Reviews: 1923,
		},
		{
			ID:            "3",
			Name:          "Portable Power Bank",
			Price:         49.99,
			OriginalPrice: 69.99,
			Image:         "https://images.unsplash.com/photo-1609091839311-d5365f9ff1c5?w=300&h=300&fit=crop&crop=center",
			Rating:        4.7,
			Reviews:       856,
		},
	}
}

// Offers returns the offers shown at each moment
func Offers() []Offer {
	return []Offer{
		{
			ID:          "cart-discount",
			Type:        OfferDiscount,
			Title:       "15% Off Your Order",
			Description: "Complete your purchase in the next 10 minutes",
			Value:       "15% OFF",
			Trigger:     StepCart,
		},
		{
			ID:          "free-shipping",
			Type:        OfferFreeShipping,
			Title:       "Free Express Shipping",
			Description: "On orders over $150 - Limited time offer",
			Value:       "FREE SHIPPING",
			Trigger:     StepCheckout,
		},
		{
			ID:          "bundle-deal",
			Type:        OfferBundle,
			Title:       "Bundle & Save 25%",
			Description: "Add 2 more items and save even more",
			Value:       "25% OFF",
			Trigger:     StepCart,
		},
		{
			ID:          "cashback",
			Type:        OfferCashback,
			Title:       "10% Cashback",
			Description: "Earn cashback on your first purchase",
			Value:       "10% BACK",
			Trigger:     StepPayment,
		},
	}
}

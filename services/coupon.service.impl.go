package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"booking-service/domain"

	gocache "github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const couponCacheTTL = 5 * time.Minute

type CouponServiceImpl struct {
	collection *mongo.Collection
	cache      *gocache.Cache
}

func NewCouponServiceImpl(collection *mongo.Collection) CouponService {
	return &CouponServiceImpl{
		collection: collection,
		cache:      gocache.New(couponCacheTTL, 2*couponCacheTTL),
	}
}

func (s *CouponServiceImpl) Evaluate(ctx context.Context, code string, eligibility domain.CouponEligibility, subtotal float64) (*domain.AppliedCoupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, &domain.CouponError{Code: code, Reason: "provide a coupon code"}
	}

	coupon, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateCoupon(coupon, eligibility); err != nil {
		return nil, err
	}

	return &domain.AppliedCoupon{
		Coupon:         *coupon,
		DiscountAmount: domain.CouponDiscount(coupon, subtotal, eligibility.StayNights),
		Subtotal:       subtotal,
	}, nil
}

func (s *CouponServiceImpl) lookup(ctx context.Context, code string) (*domain.Coupon, error) {
	if cached, found := s.cache.Get(code); found {
		coupon := cached.(domain.Coupon)

		return &coupon, nil
	}

	var coupon domain.Coupon

	err := s.collection.FindOne(ctx, bson.M{"code": code}).Decode(&coupon)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &domain.CouponError{Code: code, Reason: "unknown coupon code"}
		}

		return nil, err
	}

	s.cache.Set(code, coupon, gocache.DefaultExpiration)

	return &coupon, nil
}

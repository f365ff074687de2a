package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Gantuuu/Elbeg-sub001/models"
)

// MongoStore implements Store on MongoDB. Order lines are embedded in the
// order document. CreateOrder and UpdateOrderStatus use multi-document
// transactions, which need a replica set.
type MongoStore struct {
	client *mongo.Client

	Products        *mongo.Collection
	Orders          *mongo.Collection
	Settings        *mongo.Collection
	NonDeliveryDays *mongo.Collection
	BankAccounts    *mongo.Collection
	Users           *mongo.Collection
	Counters        *mongo.Collection
}

// OpenMongo connects to uri and prepares indexes in database.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRegistry(newRegistry()))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(database)
	s := &MongoStore{
		client:          client,
		Products:        db.Collection("products"),
		Orders:          db.Collection("orders"),
		Settings:        db.Collection("delivery_settings"),
		NonDeliveryDays: db.Collection("non_delivery_days"),
		BankAccounts:    db.Collection("bank_accounts"),
		Users:           db.Collection("users"),
		Counters:        db.Collection("counters"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		}
	}
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.Products:        {{Keys: bson.D{{Key: "category", Value: 1}}}},
		s.Orders:          {unique("idempotency_key"), {Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}}},
		s.NonDeliveryDays: {unique("date")},
		s.Users:           {unique("email"), unique("external_id")},
	}
	for coll, idx := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// nextID hands out sequential integer ids per collection.
func (s *MongoStore) nextID(ctx context.Context, name string) (uint, error) {
	var c struct {
		Seq uint `bson:"seq"`
	}
	err := s.Counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	return c.Seq, err
}

func mongoNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func mongoDuplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id uint) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- products ----

func (s *MongoStore) ListProducts(ctx context.Context, category string) ([]models.Product, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	return findAll[models.Product](ctx, s.Products, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (s *MongoStore) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.Products.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mongoNotFound(err)
	}
	return &p, nil
}

func (s *MongoStore) CreateProduct(ctx context.Context, p *models.Product) error {
	id, err := s.nextID(ctx, "products")
	if err != nil {
		return err
	}
	p.ID = id
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	_, err = s.Products.InsertOne(ctx, p)
	return err
}

func (s *MongoStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.Products.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"name":               p.Name,
		"name_en":            p.NameEn,
		"description":        p.Description,
		"description_en":     p.DescriptionEn,
		"category":           p.Category,
		"price":              p.Price,
		"stock":              p.Stock,
		"min_order_quantity": p.MinOrderQuantity,
		"image_url":          p.ImageURL,
		"store_id":           p.StoreID,
		"updated_at":         p.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return mongoNotFound(s.Products.FindOne(ctx, bson.M{"_id": p.ID}).Decode(p))
}

func (s *MongoStore) DeleteProduct(ctx context.Context, id uint) error {
	return deleteByID(ctx, s.Products, id)
}

// ---- orders ----

func (s *MongoStore) CreateOrder(ctx context.Context, in models.NewOrder, opts OrderOptions) (*CreateResult, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer sess.EndSession(ctx)

	out, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return s.createOrderTx(sc, in, opts)
	})
	if mongo.IsDuplicateKeyError(err) && in.IdempotencyKey != "" {
		var prior models.Order
		if err := s.Orders.FindOne(ctx, bson.M{"idempotency_key": in.IdempotencyKey}).Decode(&prior); err != nil {
			return nil, mongoNotFound(err)
		}
		return replay(&prior, in)
	}
	if err != nil {
		return nil, err
	}
	return out.(*CreateResult), nil
}

func (s *MongoStore) createOrderTx(sc mongo.SessionContext, in models.NewOrder, opts OrderOptions) (*CreateResult, error) {
	res := &CreateResult{}

	var (
		key  *string
		hash string
	)
	if in.IdempotencyKey != "" {
		key = &in.IdempotencyKey
		hash = in.Fingerprint()
		var prior models.Order
		err := s.Orders.FindOne(sc, bson.M{"idempotency_key": in.IdempotencyKey}).Decode(&prior)
		switch {
		case err == nil && time.Since(prior.CreatedAt) <= opts.window():
			return replay(&prior, in)
		case err == nil:
			if _, err := s.Orders.UpdateOne(sc, bson.M{"_id": prior.ID}, bson.M{"$unset": bson.M{"idempotency_key": ""}}); err != nil {
				return nil, err
			}
		case !errors.Is(err, mongo.ErrNoDocuments):
			return nil, err
		}
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(in.Items))
	for i, it := range in.Items {
		line := models.OrderItem{ID: uint(i + 1), ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price}

		var p models.Product
		err := s.Products.FindOne(sc, bson.M{"_id": it.ProductID}).Decode(&p)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			if opts.MissingProduct == MissingProductFail {
				return nil, fmt.Errorf("%w: product %d", ErrProductMissing, it.ProductID)
			}
			slog.Warn("order line references missing product, stock not adjusted", "product_id", it.ProductID)
			res.Skipped = append(res.Skipped, it.ProductID)
		case err != nil:
			return nil, err
		default:
			if it.Quantity < p.MinOrderQuantity {
				return nil, models.ValidationError(fmt.Sprintf("%s requires at least %d per order", p.Name, p.MinOrderQuantity))
			}
			line.Price = p.Price
			upd, err := s.Products.UpdateOne(sc,
				bson.M{"_id": p.ID, "stock": bson.M{"$gte": it.Quantity}},
				bson.M{"$inc": bson.M{"stock": -it.Quantity}, "$set": bson.M{"updated_at": time.Now().UTC()}},
			)
			if err != nil {
				return nil, err
			}
			if upd.MatchedCount == 0 {
				return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
			}
		}
		total = total.Add(line.Subtotal())
		items = append(items, line)
	}

	id, err := s.nextID(sc, "orders")
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	order := &models.Order{
		ID:             id,
		UserID:         in.UserID,
		CustomerName:   in.CustomerName,
		CustomerEmail:  in.CustomerEmail,
		CustomerPhone:  in.CustomerPhone,
		Address:        in.Address,
		PaymentMethod:  in.PaymentMethod,
		TotalAmount:    total,
		Status:         models.OrderStatusPending,
		DeliveryDate:   opts.DeliveryDate,
		IdempotencyKey: key,
		RequestHash:    hash,
		Items:          items,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i := range order.Items {
		order.Items[i].OrderID = id
	}
	if _, err := s.Orders.InsertOne(sc, order); err != nil {
		return nil, err
	}
	res.Order = order
	return res, nil
}

func (s *MongoStore) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := s.Orders.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, mongoNotFound(err)
	}
	if err := s.hydrateItems(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *MongoStore) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	filter := bson.M{}
	if f.UserID != nil {
		filter["user_id"] = *f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	orders, err := findAll[models.Order](ctx, s.Orders, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	ptrs := make([]*models.Order, len(orders))
	for i := range orders {
		ptrs[i] = &orders[i]
	}
	if err := s.hydrateItems(ctx, ptrs...); err != nil {
		return nil, err
	}
	return orders, nil
}

// hydrateItems fills each item's OrderID and Product with one products query,
// matching what the gorm store preloads.
func (s *MongoStore) hydrateItems(ctx context.Context, orders ...*models.Order) error {
	seen := make(map[uint]struct{})
	ids := make([]uint, 0)
	for _, o := range orders {
		for _, it := range o.Items {
			if _, ok := seen[it.ProductID]; !ok {
				seen[it.ProductID] = struct{}{}
				ids = append(ids, it.ProductID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	products, err := findAll[models.Product](ctx, s.Products, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	byID := make(map[uint]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for _, o := range orders {
		for i := range o.Items {
			o.Items[i].OrderID = o.ID
			o.Items[i].Product = byID[o.Items[i].ProductID]
		}
	}
	return nil
}

func (s *MongoStore) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus, restoreStock bool) (*models.Order, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer sess.EndSession(ctx)

	out, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var order models.Order
		if err := s.Orders.FindOne(sc, bson.M{"_id": id}).Decode(&order); err != nil {
			return nil, mongoNotFound(err)
		}
		if order.Status == status {
			return &order, nil
		}
		if !order.Status.CanTransition(status) {
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, status)
		}

		now := time.Now().UTC()
		res, err := s.Orders.UpdateOne(sc,
			bson.M{"_id": id, "status": order.Status},
			bson.M{"$set": bson.M{"status": status, "updated_at": now}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, fmt.Errorf("%w: order %d changed concurrently", ErrInvalidTransition, id)
		}
		order.Status = status
		order.UpdatedAt = now

		if status == models.OrderStatusCancelled && restoreStock {
			for _, it := range order.Items {
				_, err := s.Products.UpdateOne(sc, bson.M{"_id": it.ProductID}, bson.M{"$inc": bson.M{"stock": it.Quantity}})
				if err != nil {
					return nil, err
				}
			}
		}
		return &order, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*models.Order), nil
}

// ---- delivery configuration ----

func (s *MongoStore) GetDeliverySetting(ctx context.Context) (*models.DeliverySetting, error) {
	var ds models.DeliverySetting
	err := s.Settings.FindOne(ctx, bson.M{"_id": 1}).Decode(&ds)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return defaultDeliverySetting(), nil
	}
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

func (s *MongoStore) SaveDeliverySetting(ctx context.Context, ds *models.DeliverySetting) error {
	ds.ID = 1
	ds.UpdatedAt = time.Now().UTC()
	_, err := s.Settings.ReplaceOne(ctx, bson.M{"_id": 1}, ds, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) ListNonDeliveryDays(ctx context.Context) ([]models.NonDeliveryDay, error) {
	return findAll[models.NonDeliveryDay](ctx, s.NonDeliveryDays, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
}

func (s *MongoStore) CreateNonDeliveryDay(ctx context.Context, d *models.NonDeliveryDay) error {
	id, err := s.nextID(ctx, "non_delivery_days")
	if err != nil {
		return err
	}
	d.ID = id
	d.CreatedAt = time.Now().UTC()
	_, err = s.NonDeliveryDays.InsertOne(ctx, d)
	return mongoDuplicate(err)
}

func (s *MongoStore) DeleteNonDeliveryDay(ctx context.Context, id uint) error {
	return deleteByID(ctx, s.NonDeliveryDays, id)
}

// ---- bank accounts ----

var bankAccountSort = options.Find().SetSort(bson.D{{Key: "is_default", Value: -1}, {Key: "_id", Value: 1}})

func (s *MongoStore) ListBankAccounts(ctx context.Context) ([]models.BankAccount, error) {
	return findAll[models.BankAccount](ctx, s.BankAccounts, bson.M{}, bankAccountSort)
}

func (s *MongoStore) DefaultBankAccount(ctx context.Context) (*models.BankAccount, error) {
	var b models.BankAccount
	opts := options.FindOne().SetSort(bson.D{{Key: "is_default", Value: -1}, {Key: "_id", Value: 1}})
	if err := s.BankAccounts.FindOne(ctx, bson.M{}, opts).Decode(&b); err != nil {
		return nil, mongoNotFound(err)
	}
	return &b, nil
}

func (s *MongoStore) clearDefaultAccount(ctx context.Context) error {
	_, err := s.BankAccounts.UpdateMany(ctx, bson.M{"is_default": true}, bson.M{"$set": bson.M{"is_default": false}})
	return err
}

// withTx runs fn in a session transaction; the replica-set requirement is
// the same one CreateOrder already has.
func (s *MongoStore) withTx(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *MongoStore) CreateBankAccount(ctx context.Context, b *models.BankAccount) error {
	return s.withTx(ctx, func(sc mongo.SessionContext) error {
		if b.IsDefault {
			if err := s.clearDefaultAccount(sc); err != nil {
				return err
			}
		}
		id, err := s.nextID(sc, "bank_accounts")
		if err != nil {
			return err
		}
		b.ID = id
		b.CreatedAt = time.Now().UTC()
		_, err = s.BankAccounts.InsertOne(sc, b)
		return err
	})
}

func (s *MongoStore) UpdateBankAccount(ctx context.Context, b *models.BankAccount) error {
	return s.withTx(ctx, func(sc mongo.SessionContext) error {
		if b.IsDefault {
			if err := s.clearDefaultAccount(sc); err != nil {
				return err
			}
		}
		res, err := s.BankAccounts.UpdateOne(sc, bson.M{"_id": b.ID}, bson.M{"$set": bson.M{
			"bank_name":      b.BankName,
			"account_number": b.AccountNumber,
			"account_holder": b.AccountHolder,
			"is_default":     b.IsDefault,
		}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		return mongoNotFound(s.BankAccounts.FindOne(sc, bson.M{"_id": b.ID}).Decode(b))
	})
}

func (s *MongoStore) DeleteBankAccount(ctx context.Context, id uint) error {
	return deleteByID(ctx, s.BankAccounts, id)
}

// ---- users ----

func (s *MongoStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.Users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mongoNotFound(err)
	}
	return &u, nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.Users.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, mongoNotFound(err)
	}
	return &u, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	id, err := s.nextID(ctx, "users")
	if err != nil {
		return err
	}
	u.ID = id
	u.CreatedAt = time.Now().UTC()
	_, err = s.Users.InsertOne(ctx, u)
	return mongoDuplicate(err)
}

func (s *MongoStore) UpsertExternalUser(ctx context.Context, subject, email, name string, emailVerified bool) (*models.User, error) {
	var u models.User
	err := s.Users.FindOne(ctx, bson.M{"external_id": subject}).Decode(&u)
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	err = s.Users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	switch {
	case err == nil:
		if err := linkable(&u, subject, emailVerified); err != nil {
			return nil, err
		}
		if u.ExternalID != nil {
			return &u, nil
		}
		res, err := s.Users.UpdateOne(ctx,
			bson.M{"_id": u.ID, "external_id": nil},
			bson.M{"$set": bson.M{"external_id": subject}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, fmt.Errorf("%w: email is linked to another sign-in", ErrDuplicate)
		}
		u.ExternalID = &subject
		return &u, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, err
	}

	u = models.User{ExternalID: &subject, Email: email, Name: name}
	if err := s.CreateUser(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

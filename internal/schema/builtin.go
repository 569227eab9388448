package schema

import "dashquery/internal/domain"

// Data source ids of the built-in marketplace catalog.
const (
	SalesDataSourceID     = "p904_sales_data"
	ConnectionsDataSource = "a006_connection_mp"
	ProductsDataSource    = "a007_marketplace_product"
)

// Builtin returns the marketplace sales catalog: the sales register and the
// two dictionaries it references.
func Builtin() []domain.DataSourceSchema {
	return []domain.DataSourceSchema{
		{
			ID:          SalesDataSourceID,
			DisplayName: "Продажи маркетплейсов",
			Fields: []domain.FieldDef{
				{ID: "date", DisplayName: "Дата", ValueType: domain.Date(), CanGroup: true, DBColumn: "date"},
				{
					ID: "connection_mp_ref", DisplayName: "Кабинет маркетплейса",
					ValueType: domain.Ref(ConnectionsDataSource), CanGroup: true, DBColumn: "connection_mp_ref",
					RefDisplayColumn: "description", SourceTable: ConnectionsDataSource, JoinOnColumn: "id",
				},
				{
					ID: "marketplace_product_ref", DisplayName: "Товар маркетплейса",
					ValueType: domain.Ref(ProductsDataSource), CanGroup: true, DBColumn: "marketplace_product_ref",
					RefDisplayColumn: "description", SourceTable: ProductsDataSource, JoinOnColumn: "id",
				},
				{ID: "article", DisplayName: "Артикул", ValueType: domain.Text(), CanGroup: true, DBColumn: "article"},
				{ID: "is_return", DisplayName: "Возврат", ValueType: domain.Boolean(), CanGroup: true, DBColumn: "is_return"},
				{ID: "quantity", DisplayName: "Количество", ValueType: domain.Integer(), CanAggregate: true, DBColumn: "quantity"},
				{ID: "total", DisplayName: "Сумма продажи", ValueType: domain.Numeric(), CanAggregate: true, DBColumn: "total"},
				{ID: "commission", DisplayName: "Комиссия", ValueType: domain.Numeric(), CanAggregate: true, DBColumn: "commission"},
				{ID: "registered_at", DisplayName: "Время регистрации", ValueType: domain.DateTime(), DBColumn: "registered_at"},
			},
		},
		{
			ID:          ConnectionsDataSource,
			DisplayName: "Подключения к маркетплейсам",
			Fields: []domain.FieldDef{
				{ID: "id", DisplayName: "Идентификатор", ValueType: domain.Text(), DBColumn: "id"},
				{ID: "description", DisplayName: "Наименование", ValueType: domain.Text(), CanGroup: true, DBColumn: "description"},
				{ID: "marketplace", DisplayName: "Маркетплейс", ValueType: domain.Text(), CanGroup: true, DBColumn: "marketplace"},
			},
		},
		{
			ID:          ProductsDataSource,
			DisplayName: "Товары маркетплейсов",
			Fields: []domain.FieldDef{
				{ID: "id", DisplayName: "Идентификатор", ValueType: domain.Text(), DBColumn: "id"},
				{ID: "description", DisplayName: "Наименование", ValueType: domain.Text(), CanGroup: true, DBColumn: "description"},
				{ID: "article", DisplayName: "Артикул", ValueType: domain.Text(), CanGroup: true, DBColumn: "article"},
				{ID: "price", DisplayName: "Цена", ValueType: domain.Numeric(), CanAggregate: true, DBColumn: "price"},
			},
		},
	}
}

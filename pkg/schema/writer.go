package schema

import (
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// Writer 模式感知写入器
// 线上库的表结构可能落后于代码 (运维手动建表/删列的历史包袱)，
// 写入前先取真实列名，只写交集，保证最小可用子集也能下单。
// 列信息按表缓存，结构变更后调 Invalidate。
type Writer struct {
	db *gorm.DB

	mu     sync.RWMutex
	cols   map[string][]string
	tables map[string]bool
}

func NewWriter(db *gorm.DB) *Writer {
	return &Writer{
		db:     db,
		cols:   make(map[string][]string),
		tables: make(map[string]bool),
	}
}

// Columns 返回表的真实列名 (带缓存)
func (w *Writer) Columns(table string) ([]string, error) {
	w.mu.RLock()
	if cached, ok := w.cols[table]; ok {
		w.mu.RUnlock()
		return cached, nil
	}
	w.mu.RUnlock()

	types, err := w.db.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.Name())
	}

	w.mu.Lock()
	w.cols[table] = names
	w.mu.Unlock()
	return names, nil
}

// HasTable 可选表的能力检查 (如 payments 表不存在时跳过支付流水)
func (w *Writer) HasTable(table string) bool {
	w.mu.RLock()
	if ok, cached := w.tables[table]; cached {
		w.mu.RUnlock()
		return ok
	}
	w.mu.RUnlock()

	exists := w.db.Migrator().HasTable(table)

	w.mu.Lock()
	w.tables[table] = exists
	w.mu.Unlock()
	return exists
}

// Invalidate 清除某张表的缓存 (DDL 之后调用)
func (w *Writer) Invalidate(table string) {
	w.mu.Lock()
	delete(w.cols, table)
	delete(w.tables, table)
	w.mu.Unlock()
}

// Intersect 取候选字段与真实列的交集
func Intersect(values map[string]interface{}, cols []string) map[string]interface{} {
	set := make(map[string]bool, len(cols))
	for _, c := range cols {
		set[c] = true
	}

	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		if set[k] {
			out[k] = v
		}
	}
	return out
}

// Insert 在给定事务/会话上执行模式容忍的 INSERT
func (w *Writer) Insert(tx *gorm.DB, table string, values map[string]interface{}) error {
	cols, err := w.Columns(table)
	if err != nil {
		return err
	}

	filtered := Intersect(values, cols)
	if len(filtered) == 0 {
		return fmt.Errorf("table %s has none of the candidate columns", table)
	}

	return tx.Table(table).Create(filtered).Error
}

// InsertReturningID 同 Insert，并取回自增主键
// map 形式的 Create 不会回填 ID，只能在同一连接上读 LAST_INSERT_ID()
func (w *Writer) InsertReturningID(tx *gorm.DB, table string, values map[string]interface{}) (int64, error) {
	if err := w.Insert(tx, table, values); err != nil {
		return 0, err
	}

	var id int64
	if err := tx.Raw("SELECT LAST_INSERT_ID()").Scan(&id).Error; err != nil {
		return 0, err
	}
	return id, nil
}

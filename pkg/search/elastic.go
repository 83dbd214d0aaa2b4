package search

import (
	"context"
	"strconv"

	"github.com/olivere/elastic/v7"
)

// ProductIndexer 商品搜索索引 (可选组件)
// 未配置 ES 时为 nil，商品列表退回 MySQL LIKE
type ProductIndexer struct {
	client *elastic.Client
	index  string
}

// ProductDoc 写入索引的文档
type ProductDoc struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CategoryID  int64   `json:"category_id"`
	Price       float64 `json:"price"`
}

func NewProductIndexer(address, index string) (*ProductIndexer, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(address),
		elastic.SetSniff(false),
	)
	if err != nil {
		return nil, err
	}

	if index == "" {
		index = "shopvn_products"
	}
	return &ProductIndexer{client: client, index: index}, nil
}

// Index 建/更新文档，文档 ID 用商品主键
func (s *ProductIndexer) Index(ctx context.Context, doc ProductDoc) error {
	_, err := s.client.Index().
		Index(s.index).
		Id(strconv.FormatInt(doc.ID, 10)).
		BodyJson(doc).
		Do(ctx)
	return err
}

// Delete 删除文档，404 不算错误
func (s *ProductIndexer) Delete(ctx context.Context, id int64) error {
	_, err := s.client.Delete().
		Index(s.index).
		Id(strconv.FormatInt(id, 10)).
		Do(ctx)
	if elastic.IsNotFound(err) {
		return nil
	}
	return err
}

// Search 按关键词搜商品，返回命中的商品 ID 和总数
func (s *ProductIndexer) Search(ctx context.Context, query string, page, pageSize int) ([]int64, int64, error) {
	q := elastic.NewMultiMatchQuery(query, "name", "description").
		Fuzziness("AUTO")

	res, err := s.client.Search().
		Index(s.index).
		Query(q).
		From((page - 1) * pageSize).
		Size(pageSize).
		Do(ctx)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]int64, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		id, err := strconv.ParseInt(hit.Id, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, res.TotalHits(), nil
}

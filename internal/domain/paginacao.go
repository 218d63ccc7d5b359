package domain

// Ordenacao indica a direção de ordenação das listagens (sempre pelo nome).
type Ordenacao int

const (
	OrdenacaoAscendente Ordenacao = iota
	OrdenacaoDescendente
)

// PaginacaoResult é o envelope padrão das listagens paginadas.
type PaginacaoResult[T any] struct {
	Itens         []T `json:"itens"`
	PaginaAtual   int `json:"paginaAtual"`
	TamanhoPagina int `json:"tamanhoPagina"`
	TotalItens    int `json:"totalItens"`
	TotalPaginas  int `json:"totalPaginas"`
}

// NovaPaginacao monta o resultado paginado calculando o total de páginas
// por arredondamento para cima.
func NovaPaginacao[T any](itens []T, pagina, tamanho, total int) PaginacaoResult[T] {
	totalPaginas := 0
	if tamanho > 0 {
		totalPaginas = (total + tamanho - 1) / tamanho
	}
	return PaginacaoResult[T]{
		Itens:         itens,
		PaginaAtual:   pagina,
		TamanhoPagina: tamanho,
		TotalItens:    total,
		TotalPaginas:  totalPaginas,
	}
}

package subgraph

const poolFields = `
      id
      token0 {
        id
        symbol
        name
        decimals
      }
      token1 {
        id
        symbol
        name
        decimals
      }
      feeTier
      liquidity
      sqrtPrice
      tick
      token0Price
      token1Price
      volumeUSD
      txCount
      totalValueLockedUSD
      totalValueLockedToken0
      totalValueLockedToken1
      createdAtTimestamp
      poolDayData(first: 30, orderBy: date, orderDirection: desc) {
        date
        volumeUSD
        tvlUSD
        feesUSD
        open
        high
        low
        close
      }
`

const topPoolsQuery = `
  query GetTopPools($first: Int!, $skip: Int!, $orderBy: String!, $orderDirection: String!, $where: Pool_filter) {
    pools(
      first: $first
      skip: $skip
      orderBy: $orderBy
      orderDirection: $orderDirection
      where: $where
    ) {` + poolFields + `    }
  }
`

const searchPoolsQuery = `
  query SearchPools($searchTerm: String!) {
    pools(
      where: {
        or: [
          { token0_: { symbol_contains_nocase: $searchTerm } }
          { token1_: { symbol_contains_nocase: $searchTerm } }
          { token0_: { name_contains_nocase: $searchTerm } }
          { token1_: { name_contains_nocase: $searchTerm } }
        ]
      }
      orderBy: totalValueLockedUSD
      orderDirection: desc
      first: 20
    ) {
      id
      token0 {
        id
        symbol
        name
        decimals
      }
      token1 {
        id
        symbol
        name
        decimals
      }
      feeTier
      totalValueLockedUSD
      volumeUSD
      poolDayData(first: 7, orderBy: date, orderDirection: desc) {
        date
        volumeUSD
        tvlUSD
        feesUSD
      }
    }
  }
`

const poolByIDQuery = `
  query GetPool($id: ID!) {
    pool(id: $id) {` + poolFields + `    }
  }
`
